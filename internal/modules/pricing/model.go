// README: Fare estimate result.
package pricing

import "safar/internal/types"

// Estimate is the commercial projection of a trip: straight-line distance,
// city-speed ETA, and the fare derived from both, plus the coordinates the
// inputs resolved to.
type Estimate struct {
	DistanceKm float64     `json:"distance_km"`
	ETAMinutes int         `json:"eta_minutes"`
	Price      float64     `json:"price"`
	Pickup     types.Point `json:"pickup_coordinates"`
	Dropoff    types.Point `json:"dropoff_coordinates"`
}

// RouteEstimate is the road-network variant from the geo provider.
type RouteEstimate struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_min"`
}
