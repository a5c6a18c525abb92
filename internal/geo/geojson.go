package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Point converts the pair into an orb point, which is in [Lon, Lat] order.
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng(), ll.Lat()}
}

// FromPoint converts an orb point back into latitude, longitude order.
func FromPoint(p orb.Point) LatLng {
	return LatLng{p.Lat(), p.Lon()}
}

// NewFeature builds a GeoJSON point feature carrying the given properties.
func NewFeature(ll LatLng, props map[string]any) *geojson.Feature {
	f := geojson.NewFeature(ll.Point())
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// BoundOf returns the bounding box of the pairs. ok is false when empty.
func BoundOf(pairs []LatLng) (b orb.Bound, ok bool) {
	if len(pairs) == 0 {
		return orb.Bound{}, false
	}

	b = pairs[0].Point().Bound()
	for _, ll := range pairs[1:] {
		b = b.Extend(ll.Point())
	}

	return b, true
}
