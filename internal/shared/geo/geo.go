package geo

import "github.com/golang/geo/s2"

// EarthRadiusMeters is the mean Earth radius used for all great-circle distances.
const EarthRadiusMeters = 6371000.0

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceMeters returns the haversine great-circle distance between a and b.
// NaN inputs propagate to the result.
func DistanceMeters(a, b Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}
