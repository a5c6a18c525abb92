package pipeline

import (
	"github.com/woozymasta/civmap/internal/config"
)

// Entry pairs a logical dataset name with the raw value found for it.
type Entry struct {
	Raw   any
	Name  string // logical dataset name
	Key   string // payload key the value was read from
	Found bool
}

// Resolve lists the (dataset, raw value) pairs to render, in order.
// Direct mode follows the payload's key order, mapping mode the order of
// the dataset_mapping table.
func Resolve(cfg *config.Config, p *Payload) []Entry {
	if cfg.API.Resolve == config.ResolveMapping {
		entries := make([]Entry, 0, cfg.DatasetMapping.Len())
		for _, m := range cfg.DatasetMapping.Entries() {
			raw, ok := p.Get(m.Backend)
			entries = append(entries, Entry{Name: m.Dataset, Key: m.Backend, Raw: raw, Found: ok})
		}
		return entries
	}

	entries := make([]Entry, 0, len(p.Keys()))
	for _, k := range p.Keys() {
		raw, ok := p.Get(k)
		entries = append(entries, Entry{Name: k, Key: k, Raw: raw, Found: ok})
	}
	return entries
}
