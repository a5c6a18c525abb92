package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/pipeline"
	"github.com/woozymasta/civmap/internal/render"
	"github.com/woozymasta/civmap/internal/status"

	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers. Everything derived
// from the pipeline result is rendered once, since the data is fetched once.
type ServerContext struct {
	Config    *config.Config
	Board     *status.Board
	Result    *pipeline.Result
	IndexHTML []byte
	Favicon   []byte
	Document  []byte
	Layers    []byte
	Preview   []byte
}

// NewServerContext renders the page, the JSON exports and the preview for a
// finished run. A preview that fails to render is logged and left empty.
func NewServerContext(cfg *config.Config, board *status.Board, res *pipeline.Result) (*ServerContext, error) {
	if res == nil || res.Map == nil {
		return nil, errors.New("server: no rendered map")
	}

	log.Info().
		Str("state", string(res.State)).
		Int("datasets", len(res.Datasets)).
		Int("primitives", res.Map.Len()).
		Msg("Initializing server context")

	doc := res.Map.Document()

	index, err := RenderPage(board.Snapshot(), doc)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	document, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode map document: %w", err)
	}

	layers, err := json.Marshal(res.Map.FeatureCollection())
	if err != nil {
		return nil, fmt.Errorf("encode layers: %w", err)
	}

	var preview bytes.Buffer
	err = res.Map.Preview(&preview, render.PreviewOptions{
		Width:   cfg.Preview.Width,
		Height:  cfg.Preview.Height,
		Quality: cfg.Preview.Quality,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Preview skipped")
		preview.Reset()
	}

	log.Debug().
		Int("index_bytes", len(index)).
		Int("document_bytes", len(document)).
		Int("layers_bytes", len(layers)).
		Int("preview_bytes", preview.Len()).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:    cfg,
		Board:     board,
		Result:    res,
		IndexHTML: index,
		Favicon:   MinifyFavicon(),
		Document:  document,
		Layers:    layers,
		Preview:   preview.Bytes(),
	}, nil
}
