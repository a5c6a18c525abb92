package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// GeometryKind selects how a dataset is drawn.
type GeometryKind string

const (
	// GeometryPoint draws one marker per record.
	GeometryPoint GeometryKind = "point"
	// GeometryCircle draws one radius-scaled disc per record.
	GeometryCircle GeometryKind = "circle"
)

// DatasetConfig describes one logical dataset.
type DatasetConfig struct {
	Circle          *CircleStyle    `yaml:"circle,omitempty" json:"circle,omitempty"`
	Label           string          `yaml:"label,omitempty" json:"label,omitempty"`
	Geometry        GeometryKind    `yaml:"geometry" json:"geometry"`
	CoordinateField string          `yaml:"coordinate_field" json:"coordinate_field"`
	Presenter       PresenterConfig `yaml:"presenter,omitempty" json:"-"`
}

// CircleStyle holds the stroke color of circle datasets.
type CircleStyle struct {
	Color string `yaml:"color" json:"color"`
}

// PresenterConfig selects and parameterizes a presenter.
// Kind names a built-in presenter; empty means the dataset name when
// one is registered under it, otherwise the template presenter.
type PresenterConfig struct {
	Radius *RadiusPolicy `yaml:"radius,omitempty"`
	Kind   string        `yaml:"kind,omitempty"`
	Popup  string        `yaml:"popup,omitempty"` // html/template over the record fields; values are escaped
}

// RadiusPolicy computes a circle radius from one numeric record field:
// min((field or Default) * Scale, Max). A Max of zero disables clamping.
type RadiusPolicy struct {
	Field   string  `yaml:"field"`
	Default float64 `yaml:"default"`
	Scale   float64 `yaml:"scale,omitempty"`
	Max     float64 `yaml:"max,omitempty"`
}

// Validate checks a single dataset entry.
func (d DatasetConfig) Validate() error {
	switch d.Geometry {
	case GeometryPoint, GeometryCircle:
	default:
		return fmt.Errorf("unknown geometry %q", d.Geometry)
	}

	if d.CoordinateField == "" {
		return fmt.Errorf("coordinate_field is required")
	}

	if r := d.Presenter.Radius; r != nil {
		if r.Field == "" {
			return fmt.Errorf("presenter.radius.field is required")
		}
		if r.Max < 0 || r.Default < 0 {
			return fmt.Errorf("presenter.radius values must not be negative")
		}
	}

	return nil
}

// MappingEntry ties a logical dataset name to the payload key holding it.
type MappingEntry struct {
	Dataset string
	Backend string
}

// DatasetMapping is an ordered logical name -> backend key table.
// Entry order follows the YAML document.
type DatasetMapping struct {
	entries []MappingEntry
}

// NewDatasetMapping builds a mapping from entries in the given order.
func NewDatasetMapping(entries ...MappingEntry) DatasetMapping {
	return DatasetMapping{entries: append([]MappingEntry(nil), entries...)}
}

// Entries returns the mapping in configuration order.
func (m DatasetMapping) Entries() []MappingEntry {
	return m.entries
}

// Len returns the number of entries.
func (m DatasetMapping) Len() int {
	return len(m.entries)
}

// UnmarshalYAML keeps the key order of the mapping node.
func (m *DatasetMapping) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: dataset_mapping must be a mapping", value.Line)
	}

	seen := make(map[string]bool, len(value.Content)/2)
	m.entries = make([]MappingEntry, 0, len(value.Content)/2)

	for i := 0; i+1 < len(value.Content); i += 2 {
		var dataset, backend string
		if err := value.Content[i].Decode(&dataset); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&backend); err != nil {
			return err
		}

		if seen[dataset] {
			return fmt.Errorf("line %d: duplicate dataset_mapping key %q", value.Content[i].Line, dataset)
		}
		seen[dataset] = true

		m.entries = append(m.entries, MappingEntry{Dataset: dataset, Backend: backend})
	}

	return nil
}

// MarshalYAML writes the mapping back in the same order.
func (m DatasetMapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range m.entries {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Dataset},
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Backend},
		)
	}
	return node, nil
}
