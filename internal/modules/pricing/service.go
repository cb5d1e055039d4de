// README: Fare estimation from coordinates or addresses, with geocode fallback.
package pricing

import (
	"context"
	"log/slog"
	"math"

	"safar/internal/config"
	"safar/internal/geo"
	"safar/internal/maps"
	"safar/internal/types"
)

type Service struct {
	provider maps.Provider // nil when no API key is configured
	cfg      config.Config
	logger   *slog.Logger
}

func NewService(provider maps.Provider, cfg config.Config, logger *slog.Logger) *Service {
	return &Service{provider: provider, cfg: cfg, logger: logger}
}

// Estimate resolves both locations to points, then derives distance, ETA, and
// price. A geocoding failure never fails the estimate: the location degrades
// to the configured fallback coordinate and the estimate proceeds.
func (s *Service) Estimate(ctx context.Context, pickup, dropoff types.Location) Estimate {
	from := s.Resolve(ctx, pickup)
	to := s.Resolve(ctx, dropoff)

	fare := s.cfg.Fare
	distance := geo.DistanceKm(from.Lat, from.Lng, to.Lat, to.Lng)
	eta := int(math.Round(distance / fare.AvgSpeedKmh * 60))
	if eta < fare.MinETAMinutes {
		eta = fare.MinETAMinutes
	}
	price := round2(fare.BaseFare + distance*fare.PerKm + float64(eta)*fare.PerMinute)

	return Estimate{
		DistanceKm: round2(distance),
		ETAMinutes: eta,
		Price:      price,
		Pickup:     from,
		Dropoff:    to,
	}
}

// EstimateRoute asks the provider for road distance and duration. Unlike
// Estimate, upstream failures propagate: callers asked for road accuracy.
func (s *Service) EstimateRoute(ctx context.Context, from, to types.Point) (RouteEstimate, error) {
	if s.provider == nil {
		return RouteEstimate{}, maps.ErrNoResult
	}
	km, minutes, err := s.provider.Route(ctx, from, to)
	if err != nil {
		return RouteEstimate{}, err
	}
	return RouteEstimate{DistanceKm: round2(km), DurationMinutes: minutes}, nil
}

// Resolve turns a Location into a Point: coordinates pass through, addresses
// go through the geocoder, and geocoder errors degrade to the fallback point.
func (s *Service) Resolve(ctx context.Context, loc types.Location) types.Point {
	if loc.Resolved() {
		return *loc.Point
	}
	if s.provider != nil {
		p, err := s.provider.Geocode(ctx, loc.Address)
		if err == nil {
			return p
		}
		s.logger.Warn("geocoding failed, using fallback",
			"address", loc.Address, "error", err)
	}
	return types.Point{Lat: s.cfg.Maps.FallbackLat, Lng: s.cfg.Maps.FallbackLng}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
