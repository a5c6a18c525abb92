package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/woozymasta/civmap/internal/config"
	"github.com/woozymasta/civmap/internal/logger"
	"github.com/woozymasta/civmap/internal/metrics"
	"github.com/woozymasta/civmap/internal/pipeline"
	"github.com/woozymasta/civmap/internal/server"
	"github.com/woozymasta/civmap/internal/status"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"  env:"CONFIG_FILE"    description:"Path to configuration file"       default:"config.yaml"`
	Addr       string `short:"a" long:"addr"    env:"LISTEN_ADDRESS" description:"Address to listen on"             default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"    env:"LISTEN_PORT"    description:"Port to listen on"                default:"8080"`
	Open       bool   `short:"o" long:"open"                         description:"Open the map in a browser"`
	NoMetrics  bool   `long:"no-metrics"        env:"NO_METRICS"     description:"Do not expose /metrics"`
	NoGzip     bool   `long:"no-gzip"           env:"NO_GZIP"        description:"Do not compress responses"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
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

	srvCtx, err := server.NewServerContext(cfg, board, res)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	// Routes
	var metricsHandler http.Handler
	if !opts.NoMetrics {
		metricsHandler = metrics.Handler()
	}
	var handler http.Handler = srvCtx.Routes(metricsHandler)
	if !opts.NoGzip {
		handler = server.Compress(handler)
	}
	handler = server.RequestLogger(handler)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("addr", listenAddr).
			Str("state", string(res.State)).
			Int("datasets", len(res.Datasets)).
			Msg("Web server started")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		log.Info().Msg("Shutting down web server")
		return srv.Shutdown(shutdownCtx)
	})

	if opts.Open {
		url := "http://" + browseAddr(opts.Addr, opts.Port) + "/"
		if err := browser.OpenURL(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
		}
	}

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// browseAddr maps wildcard listen addresses to loopback.
func browseAddr(addr string, port int) string {
	if addr == "" || addr == "0.0.0.0" || addr == "::" {
		addr = "127.0.0.1"
	}
	return net.JoinHostPort(addr, strconv.Itoa(port))
}
