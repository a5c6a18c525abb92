package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawString_LatLng(t *testing.T) {
	tests := []struct {
		name   string
		input  RawString
		want   LatLng
		wantOK bool
	}{
		{name: "plain pair", input: "15.5,32.5", want: LatLng{15.5, 32.5}, wantOK: true},
		{name: "spaces around pieces", input: " 15.56 , 32.53 ", want: LatLng{15.56, 32.53}, wantOK: true},
		{name: "negative values", input: "-33.9,-18.4", want: LatLng{-33.9, -18.4}, wantOK: true},
		{name: "extra pieces ignored", input: "1,2,3", want: LatLng{1, 2}, wantOK: true},
		{name: "single number", input: "15.5"},
		{name: "empty longitude is dropped rather than read as zero", input: "15.5,"},
		{name: "empty latitude is dropped rather than read as zero", input: ",32.5"},
		{name: "not numbers", input: "north,east"},
		{name: "infinity", input: "Inf,1"},
		{name: "nan", input: "1,NaN"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.input.LatLng()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSourceOf(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   LatLng
		wantOK bool
	}{
		{name: "string", input: "15.5,32.5", want: LatLng{15.5, 32.5}, wantOK: true},
		{name: "json array", input: []any{15.5, 32.5}, want: LatLng{15.5, 32.5}, wantOK: true},
		{name: "json numbers", input: []any{json.Number("1.25"), json.Number("2")}, want: LatLng{1.25, 2}, wantOK: true},
		{name: "numeric strings in array", input: []any{"1", "2"}, want: LatLng{1, 2}, wantOK: true},
		{name: "float slice", input: []float64{3, 4}, want: LatLng{3, 4}, wantOK: true},
		{name: "fixed array", input: [2]float64{5, 6}, want: LatLng{5, 6}, wantOK: true},
		{name: "three elements", input: []any{1.0, 2.0, 3.0}},
		{name: "mixed garbage", input: []any{1.0, true}},
		{name: "map", input: map[string]any{"lat": 1.0}},
		{name: "number", input: 42.0},
		{name: "nil", input: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, ok := SourceOf(tt.input)
			if !ok {
				assert.False(t, tt.wantOK)
				return
			}

			got, ok := src.LatLng()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRawPair_RejectsNonFinite(t *testing.T) {
	_, ok := RawPair{math.NaN(), 1}.LatLng()
	assert.False(t, ok)

	_, ok = RawPair{1, math.Inf(-1)}.LatLng()
	assert.False(t, ok)
}

func TestLatLngToMercator(t *testing.T) {
	x, y := LatLngToMercator(LatLng{0, 0})
	assert.InDelta(t, 0.5, x, 1e-9)
	assert.InDelta(t, 0.5, y, 1e-9)

	// north is up: higher latitude means smaller y
	_, yNorth := LatLngToMercator(LatLng{45, 0})
	assert.Less(t, yNorth, 0.5)

	// clamped at the projection limit
	_, yPole := LatLngToMercator(LatLng{90, 0})
	assert.InDelta(t, 0, yPole, 1e-6)
}

func TestNewFeature(t *testing.T) {
	f := NewFeature(LatLng{15.5, 32.5}, map[string]any{"name": "Ibn Sina"})

	require.NotNil(t, f)
	assert.Equal(t, 32.5, f.Geometry.Bound().Min.Lon())
	assert.Equal(t, 15.5, f.Geometry.Bound().Min.Lat())
	assert.Equal(t, "Ibn Sina", f.Properties["name"])
}

func TestBoundOf(t *testing.T) {
	_, ok := BoundOf(nil)
	assert.False(t, ok)

	b, ok := BoundOf([]LatLng{{15, 32}, {16, 33}, {14.5, 32.2}})
	require.True(t, ok)
	assert.Equal(t, LatLng{14.5, 32}, FromPoint(b.Min))
	assert.Equal(t, LatLng{16, 33}, FromPoint(b.Max))
}
