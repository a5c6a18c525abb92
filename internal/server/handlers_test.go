package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/pipeline"
	"github.com/woozymasta/civmap/internal/status"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
meta:
  title: Civic Test
api:
  base_url: %s
dataset_mapping:
  hospitals: Hospitals
datasets:
  hospitals:
    label: Hospitals
    geometry: point
    coordinate_field: gps
preview:
  width: 64
  height: 48
`

func newTestServer(t *testing.T, body string) *ServerContext {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(backend.Close)

	cfg, err := config.Parse([]byte(strings.ReplaceAll(testYAML, "%s", backend.URL)))
	require.NoError(t, err)

	p, err := pipeline.New(cfg, backend.Client())
	require.NoError(t, err)

	board := status.New()
	res, err := p.Run(context.Background(), board)
	require.NoError(t, err)

	s, err := NewServerContext(cfg, board, res)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const hospitalsBody = `{"Hospitals": [{"name": "H1", "gps": "15.5,32.5"}, {"name": "H2", "gps": "bad"}]}`

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t, hospitalsBody)
	mux := s.Routes(nil)

	rec := get(t, mux, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "Civic Test")
	assert.Contains(t, body, pipeline.MsgLoaded)
	assert.Contains(t, body, "Entries: 1")
	assert.Contains(t, body, "CIVMAP")

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = get(t, mux, "/", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = get(t, mux, "/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMapDocument(t *testing.T) {
	s := newTestServer(t, hospitalsBody)

	rec := get(t, s.Routes(nil), "/api/map")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc struct {
		Container string `json:"container"`
		Layers    []struct {
			Kind     string     `json:"kind"`
			Position [2]float64 `json:"position"`
		} `json:"layers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "map", doc.Container)
	require.Len(t, doc.Layers, 1)
	assert.Equal(t, "marker", doc.Layers[0].Kind)
	assert.Equal(t, [2]float64{15.5, 32.5}, doc.Layers[0].Position)
}

func TestHandleLayers(t *testing.T) {
	s := newTestServer(t, hospitalsBody)

	rec := get(t, s.Routes(nil), "/maps/layers.geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"FeatureCollection"`)
	assert.Contains(t, rec.Body.String(), `"H1"`)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t, `{"Other": []}`)

	rec := get(t, s.Routes(nil), "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap status.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, status.Empty, snap.State)
	assert.True(t, snap.IsError)
	assert.Equal(t, pipeline.MsgEmpty, snap.Message)
	assert.Equal(t, "Civic Test", snap.Title)
}

func TestHandlePreview(t *testing.T) {
	s := newTestServer(t, hospitalsBody)
	mux := s.Routes(nil)

	rec := get(t, mux, "/maps/preview.webp")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))

	cfg, err := webp.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)

	s.Preview = nil
	rec = get(t, mux, "/maps/preview.webp")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleFavicon(t *testing.T) {
	s := newTestServer(t, hospitalsBody)

	rec := get(t, s.Routes(nil), "/favicon.ico")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestRoutes_Metrics(t *testing.T) {
	s := newTestServer(t, hospitalsBody)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := get(t, s.Routes(metrics), "/metrics")
	assert.Equal(t, "ok", rec.Body.String())

	rec = get(t, s.Routes(nil), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLogger_CapturesStatus(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := get(t, h, "/brew")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCompress(t *testing.T) {
	payload := strings.Repeat(`{"name":"hospital"}`, 200)
	h := Compress(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))

	rec := get(t, h, "/", "Accept-Encoding", "gzip")
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Less(t, rec.Body.Len(), len(payload))

	rec = get(t, h, "/")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, payload, rec.Body.String())
}

func TestNewServerContext_NoMap(t *testing.T) {
	_, err := NewServerContext(&config.Config{}, nil, nil)
	assert.Error(t, err)
}
