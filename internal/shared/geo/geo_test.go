package geo

import (
	"math"
	"testing"
)

func TestDistanceMetersJakartaBandung(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := DistanceMeters(Coordinate{-6.2, 106.816}, Coordinate{-6.9175, 107.6191}) / 1000
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceMetersSamePoint(t *testing.T) {
	p := Coordinate{Latitude: 51.5, Longitude: -0.12}
	if d := DistanceMeters(p, p); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestDistanceMetersKnownPairs(t *testing.T) {
	cases := []struct {
		name string
		a, b Coordinate
		want float64
	}{
		{"milli-degree of longitude at equator", Coordinate{0, 0}, Coordinate{0, 0.001}, 111.19},
		{"quarter meridian", Coordinate{0, 0}, Coordinate{90, 0}, math.Pi / 2 * EarthRadiusMeters},
		{"near antipodal", Coordinate{0, 0}, Coordinate{0, 179.999}, 20014975.6},
	}
	for _, tc := range cases {
		got := DistanceMeters(tc.a, tc.b)
		if math.Abs(got-tc.want) > 1 {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestDistanceMetersSymmetric(t *testing.T) {
	a := Coordinate{Latitude: -33.86, Longitude: 151.21}
	b := Coordinate{Latitude: -37.81, Longitude: 144.96}
	if DistanceMeters(a, b) != DistanceMeters(b, a) {
		t.Fatalf("expected symmetric distance")
	}
}

func TestDistanceMetersNaN(t *testing.T) {
	d := DistanceMeters(Coordinate{math.NaN(), 0}, Coordinate{0, 0})
	if !math.IsNaN(d) {
		t.Fatalf("expected NaN, got %v", d)
	}
}
