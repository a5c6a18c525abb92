// Package render places adapted records on a map surface and exports it.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/dataset"
	"github.com/woozymasta/civmap/internal/geo"
	"github.com/woozymasta/civmap/internal/presenter"
)

// FillOpacity is the fixed fill opacity of circles.
const FillOpacity = 0.5

// ErrInvalidMap is returned by CreateMap when the surface cannot be set up.
var ErrInvalidMap = errors.New("invalid map")

// Kind is the primitive type drawn on the map.
type Kind string

const (
	KindMarker Kind = "marker"
	KindCircle Kind = "circle"
)

// Primitive is one visual element placed on the map.
type Primitive struct {
	Fields      dataset.Record `json:"properties,omitempty"`
	Kind        Kind           `json:"kind"`
	Dataset     string         `json:"dataset"`
	Popup       string         `json:"popup,omitempty"`
	Color       string         `json:"color,omitempty"`
	Position    geo.LatLng     `json:"position"`
	Radius      float64        `json:"radius,omitempty"`
	FillOpacity float64        `json:"fillOpacity,omitempty"`
}

// Map is the rendering surface. Primitives only accumulate; nothing is
// removed or deduplicated.
type Map struct {
	TileLayer  config.TileLayer
	Container  string
	primitives []Primitive
	Center     geo.LatLng
	Zoom       int
}

// CreateMap initializes a surface bound to the named container, centered
// and zoomed, with one base tile layer.
func CreateMap(containerID string, center geo.LatLng, zoom int, tile config.TileLayer) (*Map, error) {
	if strings.TrimSpace(containerID) == "" {
		return nil, fmt.Errorf("%w: empty container id", ErrInvalidMap)
	}
	if !center.Valid() || center.Lat() < -90 || center.Lat() > 90 || center.Lng() < -180 || center.Lng() > 180 {
		return nil, fmt.Errorf("%w: center %v out of range", ErrInvalidMap, center)
	}
	if tile.Options.MaxZoom <= 0 {
		return nil, fmt.Errorf("%w: tile layer max zoom must be positive", ErrInvalidMap)
	}
	if zoom < 0 || zoom > tile.Options.MaxZoom {
		return nil, fmt.Errorf("%w: zoom %d outside [0, %d]", ErrInvalidMap, zoom, tile.Options.MaxZoom)
	}
	for _, ph := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(tile.URL, ph) {
			return nil, fmt.Errorf("%w: tile url %q lacks %s", ErrInvalidMap, tile.URL, ph)
		}
	}

	return &Map{
		Container: containerID,
		Center:    center,
		Zoom:      zoom,
		TileLayer: tile,
	}, nil
}

// RenderPoints places one marker per record. A non-empty popup from p is
// attached to its marker.
func RenderPoints(m *Map, name string, records []dataset.AdaptedRecord, p presenter.Presenter) {
	for _, rec := range records {
		prim := Primitive{
			Kind:     KindMarker,
			Dataset:  name,
			Position: rec.Coordinates,
			Fields:   rec.Fields,
		}
		if p != nil {
			prim.Popup = p.PopupText(rec)
		}
		m.primitives = append(m.primitives, prim)
	}
}

// RenderCircles places one circle per record with the radius supplied by p,
// the configured stroke color and a fixed fill opacity.
func RenderCircles(m *Map, name string, records []dataset.AdaptedRecord, style config.CircleStyle, p presenter.Presenter) {
	for _, rec := range records {
		prim := Primitive{
			Kind:        KindCircle,
			Dataset:     name,
			Position:    rec.Coordinates,
			Fields:      rec.Fields,
			Color:       style.Color,
			FillOpacity: FillOpacity,
		}
		if p != nil {
			prim.Radius = p.CircleRadius(rec)
			prim.Popup = p.PopupText(rec)
		}
		m.primitives = append(m.primitives, prim)
	}
}

// Primitives returns the placed primitives in placement order.
func (m *Map) Primitives() []Primitive {
	return m.primitives
}

// Len returns the number of placed primitives.
func (m *Map) Len() int {
	return len(m.primitives)
}
