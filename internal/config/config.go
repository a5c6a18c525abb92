// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/woozymasta/civmap/internal/geo"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when the file leaves a value empty.
const (
	DefaultTitle       = "My Civic Map"
	DefaultZoom        = 12
	DefaultContainer   = "map"
	DefaultEndpoint    = "/data"
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultMaxZoom     = 19
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	DefaultCircleColor = "wheat"
)

// DefaultCenter is the map center used when meta.default_center is unset.
var DefaultCenter = []float64{15.56, 32.53}

// Config represents the root configuration file structure.
type Config struct {
	Datasets       map[string]DatasetConfig `yaml:"datasets" json:"datasets"`
	Meta           Meta                     `yaml:"meta" json:"meta"`
	API            API                      `yaml:"api" json:"-"`
	TileLayer      TileLayer                `yaml:"tile_layer" json:"tile_layer"`
	DatasetMapping DatasetMapping           `yaml:"dataset_mapping,omitempty" json:"-"`
	Preview        Preview                  `yaml:"preview,omitempty" json:"-"`
}

// Meta holds page level presentation settings.
type Meta struct {
	Title         string    `yaml:"title" json:"title"`
	Container     string    `yaml:"container,omitempty" json:"container"`
	DefaultCenter []float64 `yaml:"default_center" json:"default_center"`
	DefaultZoom   int       `yaml:"default_zoom" json:"default_zoom"`
}

// Center returns the default center as a coordinate pair.
func (m Meta) Center() geo.LatLng {
	if len(m.DefaultCenter) != 2 {
		return geo.LatLng{}
	}
	return geo.LatLng{m.DefaultCenter[0], m.DefaultCenter[1]}
}

// ResolveMode selects how payload keys are matched to configured datasets.
type ResolveMode string

const (
	// ResolveDirect iterates the payload's own top-level keys.
	ResolveDirect ResolveMode = "direct"
	// ResolveMapping iterates the dataset_mapping table.
	ResolveMapping ResolveMode = "mapping"
)

// API describes the remote JSON provider.
type API struct {
	BaseURL      string        `yaml:"base_url"`
	DataEndpoint string        `yaml:"data_endpoint"`
	Resolve      ResolveMode   `yaml:"resolve,omitempty"`
	Envelope     string        `yaml:"envelope,omitempty"` // key wrapping the dataset map, e.g. "datasets"
	Timeout      time.Duration `yaml:"timeout,omitempty"`  // zero waits for the response indefinitely
}

// URL returns the full data endpoint address.
func (a API) URL() string {
	return strings.TrimRight(a.BaseURL, "/") + "/" + strings.TrimLeft(a.DataEndpoint, "/")
}

// TileLayer describes the base map imagery.
type TileLayer struct {
	URL     string      `yaml:"url" json:"url"`
	Options TileOptions `yaml:"options" json:"options"`
}

// TileOptions are passed through to the map widget unchanged.
type TileOptions struct {
	Attribution string `yaml:"attribution" json:"attribution"`
	Subdomains  string `yaml:"subdomains,omitempty" json:"subdomains,omitempty"`
	MaxZoom     int    `yaml:"max_zoom" json:"maxZoom"`
}

// Preview controls the raster snapshot of the rendered map.
type Preview struct {
	Width   int `yaml:"width,omitempty"`
	Height  int `yaml:"height,omitempty"`
	Quality int `yaml:"quality,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes a YAML document, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Meta.Title == "" {
		c.Meta.Title = DefaultTitle
	}
	if c.Meta.Container == "" {
		c.Meta.Container = DefaultContainer
	}
	if len(c.Meta.DefaultCenter) == 0 {
		c.Meta.DefaultCenter = append([]float64(nil), DefaultCenter...)
	}
	if c.Meta.DefaultZoom == 0 {
		c.Meta.DefaultZoom = DefaultZoom
	}

	if c.API.DataEndpoint == "" {
		c.API.DataEndpoint = DefaultEndpoint
	}
	if c.API.Resolve == "" {
		if c.DatasetMapping.Len() > 0 {
			c.API.Resolve = ResolveMapping
		} else {
			c.API.Resolve = ResolveDirect
		}
	}

	if c.TileLayer.URL == "" {
		c.TileLayer.URL = DefaultTileURL
	}
	if c.TileLayer.Options.MaxZoom <= 0 {
		c.TileLayer.Options.MaxZoom = DefaultMaxZoom
	}
	if c.TileLayer.Options.Attribution == "" {
		c.TileLayer.Options.Attribution = DefaultAttribution
	}

	if c.Preview.Width <= 0 {
		c.Preview.Width = 1024
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = 768
	}
	if c.Preview.Quality <= 0 || c.Preview.Quality > 100 {
		c.Preview.Quality = 85
	}

	for name, ds := range c.Datasets {
		if ds.Geometry == GeometryCircle {
			if ds.Circle == nil {
				ds.Circle = &CircleStyle{}
			}
			if ds.Circle.Color == "" {
				ds.Circle.Color = DefaultCircleColor
			}
		}
		c.Datasets[name] = ds
	}
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if len(c.Meta.DefaultCenter) != 2 {
		return fmt.Errorf("meta.default_center must hold exactly two numbers, got %d", len(c.Meta.DefaultCenter))
	}
	if len(c.Datasets) == 0 {
		return fmt.Errorf("datasets must not be empty")
	}

	switch c.API.Resolve {
	case ResolveDirect:
	case ResolveMapping:
		if c.DatasetMapping.Len() == 0 {
			return fmt.Errorf("api.resolve is %q but dataset_mapping is empty", ResolveMapping)
		}
	default:
		return fmt.Errorf("unknown api.resolve %q (want %q or %q)", c.API.Resolve, ResolveDirect, ResolveMapping)
	}

	for name, ds := range c.Datasets {
		if err := ds.Validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", name, err)
		}
	}

	return nil
}
