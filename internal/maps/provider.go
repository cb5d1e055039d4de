// README: Geo provider contract consumed by estimation and matching.
package maps

import (
	"context"
	"errors"

	"safar/internal/types"
)

// ErrNoResult is returned when the upstream provider has no answer for the
// given address, coordinates, or route.
var ErrNoResult = errors.New("no result from geo provider")

// Provider abstracts the external geocoding/routing service. Any method may
// fail with a transient upstream error; call sites decide whether to degrade
// to a fallback coordinate or to propagate.
type Provider interface {
	// Geocode resolves a free-text address to coordinates.
	Geocode(ctx context.Context, address string) (types.Point, error)
	// ReverseGeocode resolves coordinates to a formatted address.
	ReverseGeocode(ctx context.Context, p types.Point) (string, error)
	// Route returns the road distance in kilometres and travel duration in
	// minutes between two points.
	Route(ctx context.Context, from, to types.Point) (float64, int, error)
}
