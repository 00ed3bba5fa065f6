package geo_test

import (
	"testing"

	"sahayak-agent/internal/geo"

	"github.com/stretchr/testify/assert"
)

func TestCoincidentPointsAlwaysWithin(t *testing.T) {
	points := []geo.Point{
		{Lat: 0, Lng: 0},
		{Lat: 28.6139, Lng: 77.2090},
		{Lat: -33.8688, Lng: 151.2093},
	}

	for _, p := range points {
		assert.Zero(t, geo.Distance(p, p))
		assert.True(t, geo.IsWithin(p, p, 0))
		assert.True(t, geo.IsWithin(p, p, 500))
	}
}

func TestFiveDegreesOfLatitude(t *testing.T) {
	a := geo.Point{Lat: 0, Lng: 0}
	b := geo.Point{Lat: 5, Lng: 0}

	// 5 degrees of latitude is roughly 555 km.
	d := geo.Distance(a, b)
	assert.InDelta(t, 556000, d, 2000)

	assert.False(t, geo.IsWithin(a, b, 500000))
	assert.True(t, geo.IsWithin(a, b, 600000000))
}

func TestVillageRadius(t *testing.T) {
	center := geo.Point{Lat: 28.6139, Lng: 77.2090}
	nearby := geo.Point{Lat: 28.6150, Lng: 77.2095}  // ~130 m away
	farAway := geo.Point{Lat: 28.7041, Lng: 77.1025} // another part of the city

	assert.True(t, geo.IsWithin(nearby, center, 500))
	assert.False(t, geo.IsWithin(farAway, center, 500))
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := geo.Point{Lat: 12.9716, Lng: 77.5946}
	b := geo.Point{Lat: 13.0827, Lng: 80.2707}
	assert.InDelta(t, geo.Distance(a, b), geo.Distance(b, a), 1e-9)
}
