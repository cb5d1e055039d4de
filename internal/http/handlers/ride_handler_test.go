// README: HTTP surface tests against in-memory stores.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"safar/internal/config"
	"safar/internal/dispatch"
	safarhttp "safar/internal/http"
	"safar/internal/modules/driver"
	"safar/internal/modules/offer"
	"safar/internal/modules/pricing"
	"safar/internal/modules/ride"
	"safar/internal/types"
)

type fixture struct {
	router  http.Handler
	drivers *driver.MemoryStore
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Matching = config.MatchingConfig{
		OfferTTL:     80 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		MaxRounds:    3,
	}
	cfg.Fare = config.FareConfig{
		BaseFare:      5,
		PerKm:         2,
		PerMinute:     0.5,
		AvgSpeedKmh:   30,
		MinETAMinutes: 5,
	}
	cfg.Maps.FallbackLat = 33.5731
	cfg.Maps.FallbackLng = -7.5898
	return cfg
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	driverStore := driver.NewMemoryStore()
	rideStore := ride.NewMemoryStore()
	offerStore := offer.NewMemoryStore()

	rides := ride.NewService(rideStore, driverStore, logger)
	drivers := driver.NewService(driverStore)
	fares := pricing.NewService(nil, cfg, logger)
	registry := dispatch.NewWSRegistry(logger)
	neg := ride.NewNegotiator(rides, driver.NewLocator(driverStore), offerStore, registry, cfg.Matching, logger)

	router := safarhttp.NewRouter(safarhttp.RouterDeps{
		Rides:      rides,
		Negotiator: neg,
		Drivers:    drivers,
		Fares:      fares,
		Registry:   registry,
		Logger:     logger,
		MatchCtx:   context.Background(),
	})
	return &fixture{router: router, drivers: driverStore}
}

func (f *fixture) seedDriver(id types.ID, lat, lng float64) {
	f.drivers.Upsert(driver.Driver{
		ID:        id,
		Name:      "Driver " + string(id),
		Location:  &types.Point{Lat: lat, Lng: lng},
		Available: true,
	})
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func createRideReq(riderID string) map[string]any {
	return map[string]any{
		"rider_id": riderID,
		"pickup":   map[string]any{"label": "Casa Port", "lat": 33.5731, "lng": -7.5898},
		"dropoff":  map[string]any{"label": "Ain Diab", "lat": 33.5890, "lng": -7.6680},
	}
}

func TestEstimateEndpoint(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/estimate", map[string]any{
		"pickup":  map[string]any{"lat": 0.0, "lng": 0.0},
		"dropoff": map[string]any{"lat": 0.0, "lng": 1.0},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("estimate status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["distance_km"].(float64) < 111 || body["distance_km"].(float64) > 112 {
		t.Errorf("distance_km = %v, want ~111.19", body["distance_km"])
	}
	if body["price"].(float64) <= 0 {
		t.Errorf("price = %v, want positive", body["price"])
	}
}

func TestCreateRideRequiresPickupCoordinates(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/rides", map[string]any{
		"rider_id": "rider-1",
		"pickup":   map[string]any{"label": "Somewhere"},
		"dropoff":  map[string]any{"label": "Elsewhere"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateRideAndAccept(t *testing.T) {
	f := newFixture()
	f.seedDriver("d1", 33.57, -7.59)

	w := f.do(http.MethodPost, "/api/rides", createRideReq("rider-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	rideID := body["id"].(string)
	if body["status"] != string(ride.StatusMatching) {
		t.Fatalf("status = %v, want %s", body["status"], ride.StatusMatching)
	}
	if body["share_token"] == "" {
		t.Fatal("share_token missing from create response")
	}
	if body["price"].(float64) <= 0 {
		t.Fatalf("price = %v, want positive quote", body["price"])
	}

	// The negotiation goroutine publishes the offer asynchronously; retry
	// the accept until it lands or the deadline passes.
	deadline := time.Now().Add(2 * time.Second)
	for {
		w = f.do(http.MethodPost, "/api/rides/"+rideID+"/accept", map[string]any{"driver_id": "d1"})
		if w.Code == http.StatusOK {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("accept never succeeded, last status %d body %s", w.Code, w.Body.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	body = decode(t, w)
	if body["status"] != string(ride.StatusDriverAssigned) {
		t.Fatalf("status after accept = %v", body["status"])
	}
	if body["driver_id"] != "d1" {
		t.Fatalf("driver_id = %v, want d1", body["driver_id"])
	}

	// Full trip through the driver endpoints.
	for _, step := range []string{"arrived", "ongoing", "completed"} {
		w = f.do(http.MethodPost, "/api/rides/"+rideID+"/"+step, map[string]any{"driver_id": "d1"})
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body %s", step, w.Code, w.Body.String())
		}
	}
	body = decode(t, w)
	if body["status"] != string(ride.StatusCompleted) {
		t.Fatalf("final status = %v", body["status"])
	}
}

func TestAcceptWithoutOffer(t *testing.T) {
	f := newFixture()
	// No drivers seeded, so no offer ever exists.
	w := f.do(http.MethodPost, "/api/rides", createRideReq("rider-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	rideID := decode(t, w)["id"].(string)

	w = f.do(http.MethodPost, "/api/rides/"+rideID+"/accept", map[string]any{"driver_id": "d9"})
	if w.Code != http.StatusConflict {
		t.Fatalf("accept without offer = %d, want 409", w.Code)
	}
}

func TestShareEndpoint(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/rides", createRideReq("rider-1"))
	body := decode(t, w)
	token := body["share_token"].(string)

	w = f.do(http.MethodGet, "/api/share/"+token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("share status = %d", w.Code)
	}
	shared := decode(t, w)
	if _, leaked := shared["share_token"]; leaked {
		t.Fatal("share payload leaks the share token")
	}
	if _, leaked := shared["rider_id"]; leaked {
		t.Fatal("share payload leaks the rider id")
	}
	if shared["pickup_label"] != "Casa Port" {
		t.Fatalf("pickup_label = %v", shared["pickup_label"])
	}

	w = f.do(http.MethodGet, "/api/share/unknown-token", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown token status = %d, want 404", w.Code)
	}
}

func TestCancelAfterAssignmentNeedsReason(t *testing.T) {
	f := newFixture()
	f.seedDriver("d1", 33.57, -7.59)

	w := f.do(http.MethodPost, "/api/rides", createRideReq("rider-1"))
	rideID := decode(t, w)["id"].(string)

	deadline := time.Now().Add(2 * time.Second)
	for {
		w = f.do(http.MethodPost, "/api/rides/"+rideID+"/accept", map[string]any{"driver_id": "d1"})
		if w.Code == http.StatusOK {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("accept never succeeded, last status %d", w.Code)
		}
		time.Sleep(5 * time.Millisecond)
	}

	w = f.do(http.MethodPost, "/api/rides/"+rideID+"/cancel", map[string]any{"rider_id": "rider-1"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("cancel without reason = %d, want 422", w.Code)
	}

	w = f.do(http.MethodPost, "/api/rides/"+rideID+"/cancel", map[string]any{
		"rider_id": "rider-1", "reason": "waited too long",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("cancel with reason = %d, body %s", w.Code, w.Body.String())
	}
	if decode(t, w)["status"] != string(ride.StatusCancelled) {
		t.Fatal("ride not cancelled")
	}
}

func TestDriverPresenceEndpoints(t *testing.T) {
	f := newFixture()
	f.seedDriver("d1", 33.57, -7.59)

	w := f.do(http.MethodPut, "/api/drivers/d1/location", map[string]any{"lat": 33.60, "lng": -7.61})
	if w.Code != http.StatusOK {
		t.Fatalf("location update = %d", w.Code)
	}
	w = f.do(http.MethodPut, "/api/drivers/d1/availability", map[string]any{"available": false})
	if w.Code != http.StatusOK {
		t.Fatalf("availability update = %d", w.Code)
	}
	w = f.do(http.MethodPut, "/api/drivers/ghost/location", map[string]any{"lat": 1.0, "lng": 1.0})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown driver = %d, want 404", w.Code)
	}
}
