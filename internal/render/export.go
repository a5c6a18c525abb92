package render

import (
	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Document is the JSON view of the map consumed by the browser client.
type Document struct {
	TileLayer config.TileLayer `json:"tileLayer"`
	Container string           `json:"container"`
	Layers    []Primitive      `json:"layers"`
	Center    geo.LatLng       `json:"center"`
	Zoom      int              `json:"zoom"`
}

// Document returns the map state as a serializable document.
func (m *Map) Document() Document {
	layers := m.primitives
	if layers == nil {
		layers = []Primitive{}
	}

	return Document{
		Container: m.Container,
		Center:    m.Center,
		Zoom:      m.Zoom,
		TileLayer: m.TileLayer,
		Layers:    layers,
	}
}

// FeatureCollection exports every primitive as a GeoJSON point feature.
// Record fields become properties; presentation is kept under reserved
// keys prefixed with "_".
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(m.primitives))

	for _, p := range m.primitives {
		props := make(map[string]any, len(p.Fields)+6)
		for k, v := range p.Fields {
			props[k] = v
		}
		props["_kind"] = string(p.Kind)
		props["_dataset"] = p.Dataset
		if p.Popup != "" {
			props["_popup"] = p.Popup
		}
		if p.Kind == KindCircle {
			props["_radius"] = p.Radius
			props["_color"] = p.Color
			props["_fillOpacity"] = p.FillOpacity
		}

		fc.Append(geo.NewFeature(p.Position, props))
	}

	return fc
}

// Bounds returns the box around all primitives, or around the center when
// nothing is placed.
func (m *Map) Bounds() orb.Bound {
	pairs := make([]geo.LatLng, 0, len(m.primitives))
	for _, p := range m.primitives {
		pairs = append(pairs, p.Position)
	}

	if b, ok := geo.BoundOf(pairs); ok {
		return b
	}

	return m.Center.Point().Bound()
}
