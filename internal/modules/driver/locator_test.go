package driver

import (
	"context"
	"errors"
	"testing"

	"safar/internal/types"
)

func point(lat, lng float64) *types.Point {
	return &types.Point{Lat: lat, Lng: lng}
}

func TestFindNearestEmptySet(t *testing.T) {
	loc := NewLocator(NewMemoryStore())
	_, err := loc.FindNearest(context.Background(), types.Point{Lat: 33.59, Lng: -7.61}, nil)
	if !errors.Is(err, ErrNoDriver) {
		t.Fatalf("expected ErrNoDriver, got %v", err)
	}
}

func TestFindNearestSkipsIneligible(t *testing.T) {
	store := NewMemoryStore()
	store.Upsert(Driver{ID: "busy", Location: point(33.59, -7.61), Available: false})
	store.Upsert(Driver{ID: "lost", Available: true}) // no coordinates yet
	store.Upsert(Driver{ID: "ok", Location: point(33.60, -7.62), Available: true})

	d, err := loc(store).FindNearest(context.Background(), types.Point{Lat: 33.59, Lng: -7.61}, nil)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if d.ID != "ok" {
		t.Fatalf("expected the only eligible driver, got %s", d.ID)
	}
}

func TestFindNearestPicksMinimumDistance(t *testing.T) {
	store := NewMemoryStore()
	pickup := types.Point{Lat: 33.59, Lng: -7.61}
	store.Upsert(Driver{ID: "far", Location: point(34.02, -6.84), Available: true})
	store.Upsert(Driver{ID: "near", Location: point(33.60, -7.61), Available: true})
	store.Upsert(Driver{ID: "mid", Location: point(33.70, -7.50), Available: true})

	d, err := loc(store).FindNearest(context.Background(), pickup, nil)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if d.ID != "near" {
		t.Fatalf("expected nearest driver, got %s", d.ID)
	}
}

func TestFindNearestHonorsExclusion(t *testing.T) {
	store := NewMemoryStore()
	pickup := types.Point{Lat: 33.59, Lng: -7.61}
	store.Upsert(Driver{ID: "a", Location: point(33.60, -7.61), Available: true})
	store.Upsert(Driver{ID: "b", Location: point(33.70, -7.50), Available: true})

	exclude := map[types.ID]bool{"a": true}
	d, err := loc(store).FindNearest(context.Background(), pickup, exclude)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if d.ID != "b" {
		t.Fatalf("expected next-nearest after exclusion, got %s", d.ID)
	}

	exclude["b"] = true
	if _, err := loc(store).FindNearest(context.Background(), pickup, exclude); !errors.Is(err, ErrNoDriver) {
		t.Fatalf("expected ErrNoDriver with all drivers excluded, got %v", err)
	}
}

func TestFindNearestTieBreaksByLowestID(t *testing.T) {
	store := NewMemoryStore()
	pickup := types.Point{Lat: 33.59, Lng: -7.61}
	// identical coordinates, so identical distance
	store.Upsert(Driver{ID: "z", Location: point(33.60, -7.61), Available: true})
	store.Upsert(Driver{ID: "a", Location: point(33.60, -7.61), Available: true})

	for i := 0; i < 10; i++ {
		d, err := loc(store).FindNearest(context.Background(), pickup, nil)
		if err != nil {
			t.Fatalf("find nearest: %v", err)
		}
		if d.ID != "a" {
			t.Fatalf("tie should resolve to lowest id, got %s", d.ID)
		}
	}
}

func loc(store Store) *Locator {
	return NewLocator(store)
}
