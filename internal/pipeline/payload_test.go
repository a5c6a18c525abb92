package pipeline

import (
	"strings"
	"testing"

	"github.com/woozymasta/civmap/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_KeepsKeyOrder(t *testing.T) {
	p, err := DecodePayload(strings.NewReader(`{"zeta": [], "alpha": [], "mid": {"x": 1}}`), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, p.Keys())

	mid, ok := p.Get("mid")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"x": 1.0}, mid)
}

func TestDecodePayload_RejectsTrailingData(t *testing.T) {
	for _, body := range []string{
		`{"a": [{"x": {"y": 1}}]} trailing`,
		`{"a": []}]`,
		`{"a": []} {}`,
	} {
		_, err := DecodePayload(strings.NewReader(body), "")
		assert.ErrorIs(t, err, ErrDecode, body)
	}

	_, err := DecodePayload(strings.NewReader("{\"a\": []}\n\t "), "")
	assert.NoError(t, err)
}

func TestDecodePayload_DuplicateKeysKeepFirstPosition(t *testing.T) {
	p, err := DecodePayload(strings.NewReader(`{"a": [1], "b": [], "a": [2]}`), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, p.Keys())

	// last value wins
	a, _ := p.Get("a")
	assert.Equal(t, []any{2.0}, a)

	p, err = DecodePayload(strings.NewReader(`{"datasets": {"x": [], "y": [], "x": []}}`), "datasets")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, p.Keys())
}

func TestDecodePayload_PlainRecords(t *testing.T) {
	p, err := DecodePayload(strings.NewReader(`{"h": [{"name": "A", "loc": {"gps": "1,2"}}]}`), "")
	require.NoError(t, err)

	raw, _ := p.Get("h")
	items, ok := raw.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)

	rec, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "A", rec["name"])
	assert.Equal(t, map[string]any{"gps": "1,2"}, rec["loc"])
}

func TestDecodePayload_Envelope(t *testing.T) {
	body := `{"meta": {"generated_at_utc": "2026-01-01T00:00:00Z"}, "datasets": {"b": [], "a": []}}`

	p, err := DecodePayload(strings.NewReader(body), "datasets")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, p.Keys())
	assert.Equal(t, "2026-01-01T00:00:00Z", p.GeneratedAt())

	_, err = DecodePayload(strings.NewReader(`{"datasets": []}`), "datasets")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestResolve(t *testing.T) {
	p, err := DecodePayload(strings.NewReader(`{"BaseERR": [], "Hospitals": [], "Extra": 1}`), "")
	require.NoError(t, err)

	mapped := &config.Config{
		API: config.API{Resolve: config.ResolveMapping},
		DatasetMapping: config.NewDatasetMapping(
			config.MappingEntry{Dataset: "hospitals", Backend: "Hospitals"},
			config.MappingEntry{Dataset: "clinics", Backend: "Clinics"},
			config.MappingEntry{Dataset: "emergency_rooms", Backend: "BaseERR"},
		),
	}

	entries := Resolve(mapped, p)
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Name: "hospitals", Key: "Hospitals", Raw: []any{}, Found: true}, entries[0])
	assert.Equal(t, Entry{Name: "clinics", Key: "Clinics"}, entries[1])
	assert.Equal(t, "emergency_rooms", entries[2].Name)

	direct := &config.Config{API: config.API{Resolve: config.ResolveDirect}}
	entries = Resolve(direct, p)
	require.Len(t, entries, 3)
	assert.Equal(t, "BaseERR", entries[0].Name)
	assert.Equal(t, "Extra", entries[2].Name)
	assert.Equal(t, 1.0, entries[2].Raw)
}
