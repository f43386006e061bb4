package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_ZeroDistance(t *testing.T) {
	if d := DistanceKm(0, 0, 0, 0); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
	if d := DistanceKm(52.3676, 4.9041, 52.3676, 4.9041); d != 0 {
		t.Errorf("expected 0 for identical points, got %f", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"delhi to mumbai", 28.6139, 77.2090, 19.0760, 72.8777},
		{"across equator", -10.5, 20.25, 10.5, -20.25},
		{"across antimeridian", 45, 179.5, 45, -179.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			backward := DistanceKm(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
			if math.Abs(forward-backward) > 1e-9 {
				t.Errorf("asymmetric distance: %f vs %f", forward, backward)
			}
		})
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Delhi to Mumbai is roughly 1150km great-circle.
	d := DistanceKm(28.6139, 77.2090, 19.0760, 72.8777)
	if d < 1100 || d > 1200 {
		t.Errorf("expected ~1150km, got %f", d)
	}
}

func TestCellKey(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     string
	}{
		{"exact", 28.61, 77.21, "aqi_28.61_77.21"},
		{"rounds down", 28.6139, 77.2090, "aqi_28.61_77.21"},
		{"rounds up", 28.6151, 77.2151, "aqi_28.62_77.22"},
		{"negative", -33.8688, 151.2093, "aqi_-33.87_151.21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CellKey(tt.lat, tt.lng); got != tt.want {
				t.Errorf("CellKey(%f, %f) = %q, want %q", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}

func TestCellKey_NearbyPointsCollide(t *testing.T) {
	a := CellKey(28.6139, 77.2090)
	b := CellKey(28.6141, 77.2094)
	if a != b {
		t.Errorf("expected nearby points to share a key, got %q and %q", a, b)
	}
}

func TestValidateCoordinates(t *testing.T) {
	if err := ValidateCoordinates(52.37, 4.90); err != nil {
		t.Errorf("unexpected error for valid coordinates: %v", err)
	}
	if err := ValidateCoordinates(91, 0); err == nil {
		t.Error("expected error for latitude out of range")
	}
	if err := ValidateCoordinates(0, -181); err == nil {
		t.Error("expected error for longitude out of range")
	}
}
