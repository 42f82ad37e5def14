package utils

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 52.52, 13.405, 52.52, 13.405, 0, 0.001},
		{"one degree of longitude at the equator", 0, 0, 0, 1, 111.19, 0.2},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.2},
		{"berlin to munich", 52.52, 13.405, 48.137, 11.575, 504, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKm = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversineIsSymmetric(t *testing.T) {
	a := HaversineKm(52.52, 13.405, 48.137, 11.575)
	b := HaversineKm(48.137, 11.575, 52.52, 13.405)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}
