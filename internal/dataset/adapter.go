// Package dataset normalizes loosely typed civic records into records
// carrying a validated coordinate pair.
package dataset

import (
	"encoding/json"
	"math"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/geo"
)

// Record is a raw record as supplied by the remote server.
type Record map[string]any

// AdaptedRecord is a raw record plus its parsed coordinates.
// Fields is the original record and is never modified.
type AdaptedRecord struct {
	Fields      Record
	Coordinates geo.LatLng
}

// Get returns a field of the underlying record.
func (r AdaptedRecord) Get(field string) (any, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// MarshalJSON flattens the record fields and adds "coordinates" as [lat, lng].
func (r AdaptedRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["coordinates"] = r.Coordinates

	return json.Marshal(out)
}

// Stats counts what Adapt kept and dropped.
type Stats struct {
	Total   int `json:"total"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// Adapt keeps every record whose coordinate field resolves to two finite
// numbers, in input order. Input that is not a sequence yields an empty
// slice.
func Adapt(raw any, cfg config.DatasetConfig) []AdaptedRecord {
	out, _ := AdaptWithStats(raw, cfg)
	return out
}

// AdaptWithStats is Adapt that also reports how many records were dropped.
func AdaptWithStats(raw any, cfg config.DatasetConfig) ([]AdaptedRecord, Stats) {
	items, ok := sequenceOf(raw)
	if !ok {
		return []AdaptedRecord{}, Stats{}
	}

	stats := Stats{Total: len(items)}
	out := make([]AdaptedRecord, 0, len(items))

	for _, item := range items {
		rec, ok := recordOf(item)
		if !ok {
			continue
		}

		value := rec[cfg.CoordinateField]
		if isFalsy(value) {
			continue
		}

		src, ok := geo.SourceOf(value)
		if !ok {
			continue
		}

		ll, ok := src.LatLng()
		if !ok {
			continue
		}

		out = append(out, AdaptedRecord{Fields: rec, Coordinates: ll})
	}

	stats.Kept = len(out)
	stats.Dropped = stats.Total - stats.Kept

	return out, stats
}

// IsSequence reports whether Adapt would treat v as a list of records.
func IsSequence(v any) bool {
	_, ok := sequenceOf(v)
	return ok
}

func sequenceOf(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []Record:
		items := make([]any, len(v))
		for i, r := range v {
			items[i] = r
		}
		return items, true
	case []map[string]any:
		items := make([]any, len(v))
		for i, r := range v {
			items[i] = r
		}
		return items, true
	}

	return nil, false
}

func recordOf(item any) (Record, bool) {
	switch v := item.(type) {
	case Record:
		return v, v != nil
	case map[string]any:
		return Record(v), v != nil
	}

	return nil, false
}

// isFalsy mirrors the loose truthiness the payload producers rely on:
// missing, null, empty string, false and zero all mean "no coordinates".
func isFalsy(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case float64:
		return val == 0 || math.IsNaN(val)
	case int:
		return val == 0
	case json.Number:
		return val == "" || val == "0"
	}

	return false
}
