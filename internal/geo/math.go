package geo

import "math"

// MaxLat is the latitude limit of the Web Mercator projection.
const MaxLat = 85.05112878

// LatLngToMercator projects a WGS84 pair onto the unit square used by
// Web Mercator tiles: x grows east in [0..1], y grows south in [0..1].
func LatLngToMercator(ll LatLng) (x, y float64) {
	lat := ll.Lat()
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	x = (ll.Lng() + 180.0) / 360.0

	latRad := lat * math.Pi / 180.0
	mercatorY := math.Log(math.Tan(math.Pi*0.25 + latRad*0.5))
	y = 0.5 - mercatorY/(2.0*math.Pi)

	return x, y
}

// MetersPerUnit returns how many ground meters one unit of the Mercator
// unit square spans at the given latitude.
func MetersPerUnit(lat float64) float64 {
	const earthCircumference = 40075016.686
	return earthCircumference * math.Cos(lat*math.Pi/180.0)
}
