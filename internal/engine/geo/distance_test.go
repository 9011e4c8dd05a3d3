package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversineMiles(t *testing.T) {
	cases := []struct {
		name      string
		a, b      orb.Point
		wantMiles float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         orb.Point{-96.7970, 32.7767},
			b:         orb.Point{-96.7970, 32.7767},
			wantMiles: 0,
			tolerance: 0.0001,
		},
		{
			name: "dallas to fort worth",
			// Dallas (32.7767, -96.7970) to Fort Worth (32.7555, -97.3308)
			a:         orb.Point{-96.7970, 32.7767},
			b:         orb.Point{-97.3308, 32.7555},
			wantMiles: 31.0,
			tolerance: 1.0,
		},
		{
			name: "new york to los angeles",
			a:         orb.Point{-74.0060, 40.7128},
			b:         orb.Point{-118.2437, 34.0522},
			wantMiles: 2445,
			tolerance: 10,
		},
		{
			name: "one degree of latitude",
			a:         orb.Point{0, 0},
			b:         orb.Point{0, 1},
			wantMiles: 69.09,
			tolerance: 0.1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HaversineMiles(tc.a, tc.b)
			if math.Abs(got-tc.wantMiles) > tc.tolerance {
				t.Fatalf("HaversineMiles() = %.2f; want %.2f ± %.2f", got, tc.wantMiles, tc.tolerance)
			}
		})
	}
}

func TestHaversineMilesSymmetric(t *testing.T) {
	a := orb.Point{-96.7970, 32.7767}
	b := orb.Point{-122.4194, 37.7749}
	if d1, d2 := HaversineMiles(a, b), HaversineMiles(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestOffsetMilesRoundTrip(t *testing.T) {
	center := orb.Point{-96.7970, 32.7767}
	moved := OffsetMiles(center, 10, 0)
	if d := HaversineMiles(center, moved); math.Abs(d-10) > 0.05 {
		t.Fatalf("10mi north offset measures %.3f mi", d)
	}
}
