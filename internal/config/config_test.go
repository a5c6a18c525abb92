package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const mappedConfig = `
meta:
  title: Khartoum
api:
  base_url: https://example.org/
  data_endpoint: data
  timeout: 5s
dataset_mapping:
  emergency_rooms: BaseERR
  hospitals: Hospitals
datasets:
  hospitals:
    geometry: point
    coordinate_field: gps
  emergency_rooms:
    geometry: circle
    coordinate_field: gps
    presenter:
      radius:
        field: population
        default: 500
        scale: 2
        max: 3000
`

func TestParse_MappedConfig(t *testing.T) {
	cfg, err := Parse([]byte(mappedConfig))
	require.NoError(t, err)

	assert.Equal(t, "Khartoum", cfg.Meta.Title)
	assert.Equal(t, ResolveMapping, cfg.API.Resolve)
	assert.Equal(t, "https://example.org/data", cfg.API.URL())
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)

	// mapping keeps document order, not alphabetical order
	assert.Equal(t, []MappingEntry{
		{Dataset: "emergency_rooms", Backend: "BaseERR"},
		{Dataset: "hospitals", Backend: "Hospitals"},
	}, cfg.DatasetMapping.Entries())

	er := cfg.Datasets["emergency_rooms"]
	require.NotNil(t, er.Circle)
	assert.Equal(t, DefaultCircleColor, er.Circle.Color)
	require.NotNil(t, er.Presenter.Radius)
	assert.Equal(t, 3000.0, er.Presenter.Radius.Max)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
api:
  base_url: http://localhost:5000
datasets:
  hospitals:
    geometry: point
    coordinate_field: gps
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, cfg.Meta.Title)
	assert.Equal(t, DefaultContainer, cfg.Meta.Container)
	assert.Equal(t, DefaultZoom, cfg.Meta.DefaultZoom)
	assert.Equal(t, 15.56, cfg.Meta.Center().Lat())
	assert.Equal(t, 32.53, cfg.Meta.Center().Lng())
	assert.Equal(t, ResolveDirect, cfg.API.Resolve)
	assert.Equal(t, "http://localhost:5000/data", cfg.API.URL())
	assert.Equal(t, DefaultTileURL, cfg.TileLayer.URL)
	assert.Equal(t, DefaultMaxZoom, cfg.TileLayer.Options.MaxZoom)
	assert.Zero(t, cfg.API.Timeout)
	assert.Equal(t, 1024, cfg.Preview.Width)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing base url",
			doc:     "datasets: {a: {geometry: point, coordinate_field: gps}}",
			wantErr: "api.base_url",
		},
		{
			name:    "no datasets",
			doc:     "api: {base_url: http://x}",
			wantErr: "datasets must not be empty",
		},
		{
			name:    "unknown geometry",
			doc:     "api: {base_url: http://x}\ndatasets: {a: {geometry: polygon, coordinate_field: gps}}",
			wantErr: `dataset "a": unknown geometry`,
		},
		{
			name:    "missing coordinate field",
			doc:     "api: {base_url: http://x}\ndatasets: {a: {geometry: point}}",
			wantErr: "coordinate_field is required",
		},
		{
			name:    "mapping mode without table",
			doc:     "api: {base_url: http://x, resolve: mapping}\ndatasets: {a: {geometry: point, coordinate_field: gps}}",
			wantErr: "dataset_mapping is empty",
		},
		{
			name:    "unknown resolve mode",
			doc:     "api: {base_url: http://x, resolve: guess}\ndatasets: {a: {geometry: point, coordinate_field: gps}}",
			wantErr: "unknown api.resolve",
		},
		{
			name:    "duplicate mapping key",
			doc:     "api: {base_url: http://x}\ndataset_mapping:\n  a: A\n  a: B\ndatasets: {a: {geometry: point, coordinate_field: gps}}",
			wantErr: `"a"`,
		},
		{
			name:    "bad center",
			doc:     "meta: {default_center: [1]}\napi: {base_url: http://x}\ndatasets: {a: {geometry: point, coordinate_field: gps}}",
			wantErr: "default_center",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatasetMapping_RoundTrip(t *testing.T) {
	m := NewDatasetMapping(
		MappingEntry{Dataset: "z", Backend: "Z"},
		MappingEntry{Dataset: "a", Backend: "A"},
	)

	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "z: Z\na: A\n", string(out))

	var back DatasetMapping
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, m.Entries(), back.Entries())
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.DatasetMapping.Len())
	assert.Equal(t, "GPS_Location", cfg.Datasets["hospitals"].CoordinateField)
	assert.Equal(t, GeometryCircle, cfg.Datasets["emergency_rooms"].Geometry)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
