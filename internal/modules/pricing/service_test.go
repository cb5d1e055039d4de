package pricing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"safar/internal/config"
	"safar/internal/maps"
	"safar/internal/types"
)

// fakeProvider resolves known addresses and fails on everything else.
type fakeProvider struct {
	known map[string]types.Point
}

func (f *fakeProvider) Geocode(_ context.Context, address string) (types.Point, error) {
	if p, ok := f.known[address]; ok {
		return p, nil
	}
	return types.Point{}, errors.New("upstream unavailable")
}

func (f *fakeProvider) ReverseGeocode(context.Context, types.Point) (string, error) {
	return "", maps.ErrNoResult
}

func (f *fakeProvider) Route(context.Context, types.Point, types.Point) (float64, int, error) {
	return 0, 0, maps.ErrNoResult
}

func testConfig() config.Config {
	cfg, _ := config.Load()
	return cfg
}

func testService(p maps.Provider) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(p, testConfig(), logger)
}

func TestEstimateFromCoordinates(t *testing.T) {
	svc := testService(nil)
	pickup := types.LocationFromPoint(types.Point{Lat: 33.59, Lng: -7.61})
	dropoff := types.LocationFromPoint(types.Point{Lat: 33.60, Lng: -7.62})

	est := svc.Estimate(context.Background(), pickup, dropoff)

	if est.DistanceKm <= 0 || est.DistanceKm > 3 {
		t.Fatalf("unexpected distance: %f", est.DistanceKm)
	}
	// a ~1.4km hop is well under the ETA floor
	if est.ETAMinutes != 5 {
		t.Fatalf("expected ETA floor of 5, got %d", est.ETAMinutes)
	}
	want := round2(5 + est.DistanceKm*2 + float64(est.ETAMinutes)*0.5)
	if math.Abs(est.Price-want) > 0.001 {
		t.Fatalf("price = %f, want %f", est.Price, want)
	}
}

func TestEstimateETAAboveFloor(t *testing.T) {
	svc := testService(nil)
	// Casablanca to Rabat, ~85km: 85/30*60 ≈ 171 minutes
	pickup := types.LocationFromPoint(types.Point{Lat: 33.5731, Lng: -7.5898})
	dropoff := types.LocationFromPoint(types.Point{Lat: 34.0209, Lng: -6.8416})

	est := svc.Estimate(context.Background(), pickup, dropoff)

	wantETA := int(math.Round(est.DistanceKm / 30 * 60))
	if diff := est.ETAMinutes - wantETA; diff < -1 || diff > 1 {
		t.Fatalf("ETA = %d, want about %d", est.ETAMinutes, wantETA)
	}
}

func TestEstimateGeocodesAddresses(t *testing.T) {
	provider := &fakeProvider{known: map[string]types.Point{
		"Casablanca": {Lat: 33.5731, Lng: -7.5898},
		"Rabat":      {Lat: 34.0209, Lng: -6.8416},
	}}
	svc := testService(provider)

	est := svc.Estimate(context.Background(),
		types.LocationFromAddress("Casablanca"),
		types.LocationFromAddress("Rabat"))

	if est.Pickup.Lat != 33.5731 || est.Dropoff.Lat != 34.0209 {
		t.Fatalf("addresses not resolved through provider: %+v", est)
	}
	if est.DistanceKm < 80 || est.DistanceKm > 95 {
		t.Fatalf("unexpected Casablanca-Rabat distance: %f", est.DistanceKm)
	}
}

func TestEstimateFallsBackOnGeocodeError(t *testing.T) {
	provider := &fakeProvider{known: map[string]types.Point{}}
	svc := testService(provider)

	est := svc.Estimate(context.Background(),
		types.LocationFromAddress("nowhere in particular"),
		types.LocationFromPoint(types.Point{Lat: 34.0209, Lng: -6.8416}))

	// fallback is the configured default (Casablanca)
	if est.Pickup.Lat != 33.5731 || est.Pickup.Lng != -7.5898 {
		t.Fatalf("expected fallback pickup coordinate, got %+v", est.Pickup)
	}
	if est.Price <= 0 {
		t.Fatal("estimate should still produce a price on fallback")
	}
}
