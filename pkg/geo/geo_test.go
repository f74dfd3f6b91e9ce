package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantMeters       float64
		tolerancePercent float64
	}{
		{
			name: "CBD to airport",
			lat1: 1.2830, lon1: 103.8513,
			lat2: 1.3644, lon2: 103.9915,
			wantMeters:       18_023,
			tolerancePercent: 1,
		},
		{
			name: "same point",
			lat1: 1.3521, lon1: 103.8198,
			lat2: 1.3521, lon2: 103.8198,
			wantMeters:       0,
			tolerancePercent: 0,
		},
		{
			name: "London to Paris",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 48.8566, lon2: 2.3522,
			wantMeters:       343_500,
			tolerancePercent: 1,
		},
		{
			name: "one millidegree of longitude at the equator",
			lat1: 0.000, lon1: 0.000,
			lat2: 0.000, lon2: 0.001,
			wantMeters:       111.32,
			tolerancePercent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.wantMeters == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Haversine = %f m, want ~%f m (diff %.1f%%)", got, tt.wantMeters, diff)
			}
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	d1 := Haversine(1.30, 103.80, 1.35, 103.90)
	d2 := Haversine(1.35, 103.90, 1.30, 103.80)
	if math.Abs(d1-d2) > 1e-6 {
		t.Errorf("Haversine not symmetric: %f vs %f", d1, d2)
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name         string
		lat1, lon1   float64
		lat2, lon2   float64
		wantDeg      float64
		toleranceDeg float64
	}{
		{"due north", 0, 0, 1, 0, 0, 1},
		{"due east", 0, 0, 0, 1, 90, 1},
		{"due south", 1, 0, 0, 0, 180, 1},
		{"due west", 0, 1, 0, 0, 270, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if got < 0 || got >= 360 {
				t.Fatalf("bearing out of range [0,360): %f", got)
			}
			diff := math.Abs(got - tt.wantDeg)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > tt.toleranceDeg {
				t.Errorf("Bearing = %f, want ~%f", got, tt.wantDeg)
			}
		})
	}
}

func TestEquirectangularDistTracksHaversine(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
	}{
		{"equator short hop", 0, 0, 0.001, 0.001},
		{"mid-latitude block", 51.5074, -0.1278, 51.5120, -0.1200},
		{"same point", 1.3521, 103.8198, 1.3521, 103.8198},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approx := EquirectangularDist(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			exact := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if exact == 0 {
				if approx != 0 {
					t.Errorf("expected 0, got %f", approx)
				}
				return
			}
			if diff := math.Abs(approx-exact) / exact; diff > 0.01 {
				t.Errorf("EquirectangularDist = %f, Haversine = %f (diff %.2f%%)", approx, exact, diff*100)
			}
		})
	}
}

func BenchmarkHaversine(b *testing.B) {
	for b.Loop() {
		Haversine(1.3521, 103.8198, 1.2905, 103.8520)
	}
}
