package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 33.59, lng1: -7.61,
			lat2: 33.59, lng2: -7.61,
			wantKm:    0,
			tolerance: 0.0001,
		},
		{
			name: "one degree of longitude at the equator",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 1,
			wantKm:    111.19,
			tolerance: 0.1,
		},
		{
			name: "Casablanca to Rabat (~87km)",
			lat1: 33.5731, lng1: -7.5898,
			lat2: 34.0209, lng2: -6.8416,
			wantKm:    85,
			tolerance: 5,
		},
		{
			name: "New York to Los Angeles (~3944km)",
			lat1: 40.7128, lng1: -74.0060,
			lat2: 34.0522, lng2: -118.2437,
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	d1 := DistanceKm(33.5, -7.5, 34.5, -6.5)
	d2 := DistanceKm(34.5, -6.5, 33.5, -7.5)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("distance is not symmetric: %f vs %f", d1, d2)
	}
}
