package geo

import (
	"math"
	"testing"
)

func TestHaversineMiles_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantMiles float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 39.9612, lng1: -82.9988,
			lat2: 39.9612, lng2: -82.9988,
			wantMiles: 0,
			tolerance: 0.001,
		},
		{
			name: "downtown Columbus to Dublin OH (~14mi)",
			lat1: 39.9612, lng1: -82.9988,
			lat2: 40.0992, lng2: -83.1141,
			wantMiles: 11.5,
			tolerance: 2.0,
		},
		{
			name: "New York to Los Angeles (~2451mi)",
			lat1: 40.7128, lng1: -74.0060,
			lat2: 34.0522, lng2: -118.2437,
			wantMiles: 2451,
			tolerance: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMiles(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantMiles) > tt.tolerance {
				t.Errorf("HaversineMiles() = %f, want %f (±%f)", got, tt.wantMiles, tt.tolerance)
			}
		})
	}
}

func TestHaversineMiles_Symmetry(t *testing.T) {
	d1 := HaversineMiles(40.0, -83.0, 41.0, -84.0)
	d2 := HaversineMiles(41.0, -84.0, 40.0, -83.0)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}
