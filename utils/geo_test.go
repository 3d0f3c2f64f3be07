package utils

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "zero distance",
			lat1:      -6.2, lng1: 106.8, lat2: -6.2, lng2: 106.8,
			expected:  0,
			tolerance: 0.001,
		},
		{
			name:      "about 100m along the equator",
			lat1:      0, lng1: 0, lat2: 0, lng2: 0.0009,
			expected:  100.1,
			tolerance: 0.5,
		},
		{
			name:      "about 111m along the equator",
			lat1:      0, lng1: 0, lat2: 0, lng2: 0.001,
			expected:  111.2,
			tolerance: 0.5,
		},
		{
			name:      "one degree of latitude",
			lat1:      0, lng1: 0, lat2: 1, lng2: 0,
			expected:  111195,
			tolerance: 50,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := HaversineDistance(tc.lat1, tc.lng1, tc.lat2, tc.lng2)
			if math.Abs(got-tc.expected) > tc.tolerance {
				t.Fatalf("expected ~%.1fm, got %.1fm", tc.expected, got)
			}
		})
	}
}

func TestHaversineDistanceNaNPropagates(t *testing.T) {
	if got := HaversineDistance(math.NaN(), 0, 0, 0); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		lng   float64
		valid bool
	}{
		{"origin", 0, 0, true},
		{"jakarta", -6.2088, 106.8456, true},
		{"latitude boundary", 90, 0, true},
		{"longitude boundary", 0, -180, true},
		{"latitude out of range", 91, 0, false},
		{"longitude out of range", 0, 180.5, false},
		{"nan latitude", math.NaN(), 0, false},
		{"inf longitude", 0, math.Inf(1), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidCoordinate(tc.lat, tc.lng); got != tc.valid {
				t.Fatalf("ValidCoordinate(%v, %v) = %v, want %v", tc.lat, tc.lng, got, tc.valid)
			}
		})
	}
}
