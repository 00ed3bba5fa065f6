// Package geo implements the geofence check that gates delivery
// confirmation: a pure haversine distance against a circular radius
// around a reference point, plus the capability interface for acquiring
// location fixes.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius used by the haversine
// formula.
const EarthRadiusMeters = 6371000

// Point is a WGS84 lat/lng pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance returns the great-circle distance between two points in
// meters.
func Distance(a, b Point) float64 {
	dLat := deg2rad(b.Lat - a.Lat)
	dLng := deg2rad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Lat))*math.Cos(deg2rad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// IsWithin reports whether current lies inside the circle of
// radiusMeters around reference.
func IsWithin(current, reference Point, radiusMeters float64) bool {
	return Distance(current, reference) <= radiusMeters
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
