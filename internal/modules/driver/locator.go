// README: Nearest-eligible-driver search over the driver store.
package driver

import (
	"context"
	"errors"

	"safar/internal/geo"
	"safar/internal/types"
)

// ErrNoDriver means the eligible set is empty (or fully excluded).
var ErrNoDriver = errors.New("no eligible driver")

// Locator finds the nearest eligible driver to a pickup point. It is
// stateless and has no side effects.
type Locator struct {
	store Store
}

func NewLocator(store Store) *Locator {
	return &Locator{store: store}
}

// FindNearest returns the eligible driver with the minimum haversine distance
// to pickup, skipping ids in exclude. Equidistant drivers resolve to the
// lowest id so the result is deterministic.
func (l *Locator) FindNearest(ctx context.Context, pickup types.Point, exclude map[types.ID]bool) (*Driver, error) {
	candidates, err := l.store.Eligible(ctx, exclude)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoDriver
	}

	var nearest *Driver
	var minDist float64
	for i := range candidates {
		d := &candidates[i]
		dist := geo.DistanceKm(pickup.Lat, pickup.Lng, d.Location.Lat, d.Location.Lng)
		switch {
		case nearest == nil, dist < minDist:
			nearest, minDist = d, dist
		case dist == minDist && d.ID < nearest.ID:
			nearest = d
		}
	}
	return nearest, nil
}
