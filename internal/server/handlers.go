// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const etagCap = 40

// Routes registers every handler on a new mux.
func (s *ServerContext) Routes(metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/map", s.HandleMapDocument)
	mux.HandleFunc("GET /api/status", s.HandleStatus)
	mux.HandleFunc("GET /maps/layers.geojson", s.HandleLayers)
	mux.HandleFunc("GET /maps/preview.webp", s.HandlePreview)
	mux.HandleFunc("GET /favicon.ico", s.HandleFavicon)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	mux.HandleFunc("GET /", s.HandleIndex)
	return mux
}

// HandleIndex serves the rendered map page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	serveBytes(w, r, s.IndexHTML, "text/html; charset=utf-8")
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleMapDocument serves the map state consumed by the browser client.
func (s *ServerContext) HandleMapDocument(w http.ResponseWriter, r *http.Request) {
	serveBytes(w, r, s.Document, "application/json")
}

// HandleLayers serves every rendered primitive as GeoJSON.
func (s *ServerContext) HandleLayers(w http.ResponseWriter, r *http.Request) {
	serveBytes(w, r, s.Layers, "application/geo+json")
}

// HandlePreview serves the WebP snapshot of the map.
func (s *ServerContext) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if len(s.Preview) == 0 {
		http.NotFound(w, r)
		return
	}

	serveBytes(w, r, s.Preview, "image/webp")
}

// HandleStatus serves the current status board.
func (s *ServerContext) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(s.Board.Snapshot())
}

// serveBytes writes an in-memory body with a content derived ETag and
// answers conditional requests with 304.
func serveBytes(w http.ResponseWriter, r *http.Request, body []byte, contentType string) {
	etag := etagOf(body)

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(body)
}

func etagOf(body []byte) string {
	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, int64(len(body)), 16)
	buf = append(buf, '-')
	buf = strconv.AppendUint(buf, xxhash.Sum64(body), 16)
	buf = append(buf, '"')
	return string(buf)
}
