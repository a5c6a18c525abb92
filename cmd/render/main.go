package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/logger"
	"github.com/woozymasta/civmap/internal/pipeline"
	"github.com/woozymasta/civmap/internal/render"
	"github.com/woozymasta/civmap/internal/server"
	"github.com/woozymasta/civmap/internal/status"

	"github.com/jessevdk/go-flags"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Output     string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format     string `short:"f" long:"format" description:"Output format" choice:"geojson" choice:"yaml" choice:"document" choice:"html" choice:"webp" default:"geojson"`
	Zstd       bool   `short:"z" long:"zstd"   description:"Compress the output with zstd"`
	Strict     bool   `short:"s" long:"strict" description:"Exit non-zero unless every dataset step succeeded"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare datasets")
	}

	board := status.New()
	res, err := p.Run(ctx, board)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize map")
	}

	data, err := export(cfg, board, res, opts.Format)
	if err != nil {
		log.Fatal().Err(err).Str("format", opts.Format).Msg("Failed to export map")
	}

	if err := write(opts.Output, data, opts.Zstd); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}

	log.Info().
		Str("state", string(res.State)).
		Str("format", opts.Format).
		Str("out", opts.Output).
		Int("primitives", res.Map.Len()).
		Int("bytes", len(data)).
		Msg("Map exported")

	if opts.Strict && res.State != status.Rendered {
		os.Exit(2)
	}
}

// export serializes the result of a run in the requested format.
func export(cfg *config.Config, board *status.Board, res *pipeline.Result, format string) ([]byte, error) {
	switch format {
	case "geojson":
		return json.MarshalIndent(res.Map.FeatureCollection(), "", "  ")

	case "yaml":
		data, err := json.Marshal(res.Map.FeatureCollection())
		if err != nil {
			return nil, err
		}
		return jsonToYAML(data)

	case "document":
		return json.MarshalIndent(res.Map.Document(), "", "  ")

	case "html":
		return server.RenderPage(board.Snapshot(), res.Map.Document())

	case "webp":
		var buf bytes.Buffer
		err := res.Map.Preview(&buf, render.PreviewOptions{
			Width:   cfg.Preview.Width,
			Height:  cfg.Preview.Height,
			Quality: cfg.Preview.Quality,
		})
		return buf.Bytes(), err
	}

	return nil, fmt.Errorf("unknown format %q", format)
}

// jsonToYAML re-encodes a JSON document as block style YAML, keeping key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func write(path string, data []byte, compress bool) (err error) {
	var out io.Writer = os.Stdout
	if path != "" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return createErr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}

	return encode(out, data, compress)
}

func encode(out io.Writer, data []byte, compress bool) error {
	if !compress {
		_, err := out.Write(data)
		return err
	}

	zw, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
