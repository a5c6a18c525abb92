package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/iancoleman/orderedmap"
)

// Payload is the decoded response of the data endpoint. Top-level keys
// keep the order in which the server sent them.
type Payload struct {
	values      map[string]any
	generatedAt string
	keys        []string
}

// Keys returns the dataset keys in response order.
func (p *Payload) Keys() []string {
	return p.keys
}

// Get returns the plain value stored under key.
func (p *Payload) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// GeneratedAt returns meta.generated_at_utc when the response carried it.
func (p *Payload) GeneratedAt() string {
	return p.generatedAt
}

// DecodePayload reads a JSON object. When envelope is set, the datasets
// are read from the object stored under that key, e.g. {"meta": ..., "datasets": {...}}.
func DecodePayload(r io.Reader, envelope string) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	// Unmarshal rejects trailing data after the object.
	root := orderedmap.New()
	if err := json.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	p := &Payload{}

	if meta, ok := root.Get("meta"); ok {
		if m, ok := asOrdered(meta); ok {
			if ts, ok := m.Get("generated_at_utc"); ok {
				p.generatedAt, _ = ts.(string)
			}
		}
	}

	body, bodyJSON := root, data
	if envelope != "" {
		v, ok := root.Get(envelope)
		if !ok {
			return nil, fmt.Errorf("%w: envelope key %q not found", ErrDecode, envelope)
		}
		inner, ok := asOrdered(v)
		if !ok {
			return nil, fmt.Errorf("%w: envelope key %q is not an object", ErrDecode, envelope)
		}

		var top map[string]json.RawMessage
		if err := json.Unmarshal(data, &top); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		body, bodyJSON = inner, top[envelope]
	}

	// orderedmap moves a repeated key to its last position; datasets keep
	// the position of their first appearance and the last value.
	keys, err := objectKeys(bodyJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	p.keys = keys
	p.values = make(map[string]any, len(p.keys))
	for _, k := range p.keys {
		v, _ := body.Get(k)
		p.values[k] = plain(v)
	}

	return p, nil
}

// objectKeys lists the keys of a JSON object in order of first appearance.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("payload is not an object")
	}

	seen := make(map[string]bool)
	keys := make([]string, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}

		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// asOrdered unwraps the nested map representations orderedmap produces.
func asOrdered(v any) (*orderedmap.OrderedMap, bool) {
	switch m := v.(type) {
	case orderedmap.OrderedMap:
		return &m, true
	case *orderedmap.OrderedMap:
		return m, m != nil
	}
	return nil, false
}

// plain converts nested ordered maps into map[string]any so records can
// be handled as ordinary maps.
func plain(v any) any {
	switch val := v.(type) {
	case orderedmap.OrderedMap, *orderedmap.OrderedMap:
		m, _ := asOrdered(val)
		out := make(map[string]any, len(m.Keys()))
		for _, k := range m.Keys() {
			item, _ := m.Get(k)
			out[k] = plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	}

	return v
}
