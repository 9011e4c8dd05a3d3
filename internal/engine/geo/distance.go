package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusMiles = 3958.8

// HaversineMiles returns the great-circle distance in miles between two
// points given as orb points ([lng, lat] in degrees).
func HaversineMiles(a, b orb.Point) float64 {
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180.0
	dLng := (b.Lon() - a.Lon()) * math.Pi / 180.0
	lat1 := a.Lat() * math.Pi / 180.0
	lat2 := b.Lat() * math.Pi / 180.0
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMiles * c
}

// OffsetMiles returns the point reached by moving the given distances
// north and east of p. Approximate (spherical, small offsets); used to
// size map viewports around a center point.
func OffsetMiles(p orb.Point, northMiles, eastMiles float64) orb.Point {
	latDeg := northMiles / (earthRadiusMiles * math.Pi / 180.0)
	lngDeg := eastMiles / (earthRadiusMiles * math.Pi / 180.0 * math.Cos(p.Lat()*math.Pi/180.0))
	return orb.Point{p.Lon() + lngDeg, p.Lat() + latDeg}
}
