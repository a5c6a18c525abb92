// Package pipeline fetches the civic datasets once, adapts them and
// renders them onto a map.
package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/dataset"
	"github.com/woozymasta/civmap/internal/metrics"
	"github.com/woozymasta/civmap/internal/presenter"
	"github.com/woozymasta/civmap/internal/render"
	"github.com/woozymasta/civmap/internal/status"

	"github.com/rs/zerolog/log"
)

// User visible messages.
const (
	MsgLoading = "Loading data…"
	MsgLoaded  = "Data loaded"
	MsgEmpty   = "No datasets could be rendered. Check datasetMapping."
	MsgFailed  = "Failed to load data from server."
)

// Result is the outcome of one run.
type Result struct {
	Err         error // cause of a Failed run, for diagnostics only
	Map         *render.Map
	State       status.State
	GeneratedAt string
	Datasets    []status.Summary
}

// Pipeline holds everything a run needs; presenters are built up front so
// template errors surface at startup.
type Pipeline struct {
	cfg        *config.Config
	client     *http.Client
	presenters map[string]presenter.Presenter
}

// New validates the presenters of every dataset and returns a pipeline.
// A nil client means a plain client using the configured timeout.
func New(cfg *config.Config, client *http.Client) (*Pipeline, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.API.Timeout}
	}

	presenters := make(map[string]presenter.Presenter, len(cfg.Datasets))
	for name, ds := range cfg.Datasets {
		p, err := presenter.New(name, ds.Presenter)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		presenters[name] = p
	}

	return &Pipeline{cfg: cfg, client: client, presenters: presenters}, nil
}

// Run creates the map, fetches the payload and renders every resolvable
// dataset. It returns an error only when the map cannot be created or the
// board has already seen a run; every other failure is reported through
// the result state and the board.
func (p *Pipeline) Run(ctx context.Context, board *status.Board) (*Result, error) {
	m, err := render.CreateMap(
		p.cfg.Meta.Container,
		p.cfg.Meta.Center(),
		p.cfg.Meta.DefaultZoom,
		p.cfg.TileLayer,
	)
	if err != nil {
		return nil, err
	}

	board.SetTitle(p.cfg.Meta.Title)
	board.ShowStatus(MsgLoading)
	if err := board.Transition(status.Loading); err != nil {
		return nil, err
	}

	res := &Result{Map: m, State: status.Loading}

	if err := p.load(ctx, m, board, res); err != nil {
		log.Error().Err(err).Str("url", p.cfg.API.URL()).Msg("Failed to load datasets")
		res.Err = err
		res.Datasets = nil
		board.ClearDatasets()
		p.finish(board, res, status.Failed, MsgFailed)
		return res, nil
	}

	if len(res.Datasets) == 0 {
		p.finish(board, res, status.Empty, MsgEmpty)
		return res, nil
	}

	p.finish(board, res, status.Rendered, MsgLoaded)
	return res, nil
}

// load is the single failure boundary of a run: transport errors, decode
// errors and panics raised while rendering all end up as its error.
func (p *Pipeline) load(ctx context.Context, m *render.Map, board *status.Board, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()

	payload, err := Fetch(ctx, p.client, p.cfg.API.URL(), p.cfg.API.Envelope)
	if err != nil {
		return err
	}

	res.GeneratedAt = payload.GeneratedAt()
	board.SetGeneratedAt(res.GeneratedAt)
	board.ClearDatasets()

	for _, entry := range Resolve(p.cfg, payload) {
		ds, ok := p.cfg.Datasets[entry.Name]
		if !ok {
			log.Warn().Str("dataset", entry.Name).Str("key", entry.Key).Msg("No config for dataset, skipping")
			metrics.DatasetsSkipped.WithLabelValues("no_config").Inc()
			continue
		}

		if !entry.Found || !dataset.IsSequence(entry.Raw) {
			log.Warn().
				Str("dataset", entry.Name).
				Str("key", entry.Key).
				Bool("found", entry.Found).
				Msg("Backend key not found or not an array, skipping")
			metrics.DatasetsSkipped.WithLabelValues("not_array").Inc()
			continue
		}

		summary := p.renderDataset(m, entry.Name, ds, entry.Raw)
		board.AddDataset(summary)
		res.Datasets = append(res.Datasets, summary)
	}

	return nil
}

func (p *Pipeline) renderDataset(m *render.Map, name string, ds config.DatasetConfig, raw any) status.Summary {
	adapted, stats := dataset.AdaptWithStats(raw, ds)
	pres := p.presenters[name]

	switch ds.Geometry {
	case config.GeometryPoint:
		render.RenderPoints(m, name, adapted, pres)
	case config.GeometryCircle:
		style := config.CircleStyle{Color: config.DefaultCircleColor}
		if ds.Circle != nil {
			style = *ds.Circle
		}
		render.RenderCircles(m, name, adapted, style, pres)
	}

	metrics.RecordsAdapted.WithLabelValues(name).Add(float64(stats.Kept))
	metrics.RecordsDropped.WithLabelValues(name).Add(float64(stats.Dropped))

	log.Info().
		Str("dataset", name).
		Str("geometry", string(ds.Geometry)).
		Int("total", stats.Total).
		Int("rendered", stats.Kept).
		Int("dropped", stats.Dropped).
		Msg("Dataset rendered")

	return status.Summary{
		Name:    name,
		Label:   ds.Label,
		Kind:    string(ds.Geometry),
		Count:   stats.Kept,
		Dropped: stats.Dropped,
	}
}

func (p *Pipeline) finish(board *status.Board, res *Result, state status.State, msg string) {
	res.State = state
	if state == status.Rendered {
		board.ShowStatus(msg)
	} else {
		board.ShowError(msg)
	}
	if err := board.Transition(state); err != nil {
		log.Error().Err(err).Msg("Board state out of sync")
	}
	metrics.PipelineRuns.WithLabelValues(string(state)).Inc()
}
