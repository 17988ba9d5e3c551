// Package main provides the entry point for the related-work retrieval
// service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixir/related-work-service/internal/config"
	"github.com/helixir/related-work-service/internal/index"
	"github.com/helixir/related-work-service/internal/observability"
	"github.com/helixir/related-work-service/internal/papersources"
	"github.com/helixir/related-work-service/internal/papersources/arxiv"
	"github.com/helixir/related-work-service/internal/papersources/semanticscholar"
	"github.com/helixir/related-work-service/internal/pdf"
	"github.com/helixir/related-work-service/internal/retrieval"
	httpserver "github.com/helixir/related-work-service/internal/server/http"
	"github.com/helixir/related-work-service/internal/storage"
	"github.com/helixir/related-work-service/internal/venue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("related-work-service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Open the two storage tiers.
	store, err := storage.New(cfg.Storage, venue.New(), index.New(), logger)
	if err != nil {
		return fmt.Errorf("open storage tiers: %w", err)
	}
	logger.Info().
		Str("curated_dir", cfg.Storage.CuratedDir).
		Str("cached_dir", cfg.Storage.CachedDir).
		Msg("storage tiers ready")

	// Register the remote source adapters.
	registry := papersources.NewRegistry()
	registry.Register(arxiv.New(cfg.Sources.ArXiv))
	registry.Register(semanticscholar.New(cfg.Sources.SemanticScholar))
	for _, src := range registry.Enabled() {
		logger.Info().Str("source", src.Name()).Msg("paper source enabled")
	}

	merger := retrieval.NewMerger(store, registry, cfg.Retrieval, metrics, logger)

	downloader := pdf.NewDownloader(cfg.PDF)
	materializer := retrieval.NewMaterializer(store, downloader, cfg.Materializer, metrics, logger)

	httpCfg := httpserver.Config{
		Address:           cfg.Server.HTTPAddress(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		DefaultMaxResults: cfg.Retrieval.DefaultMaxResults,
	}
	httpSrv := httpserver.NewServer(httpCfg, store, merger, materializer, logger)

	// Prometheus metrics on a separate port when enabled.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("address", httpCfg.Address).Msg("HTTP REST API server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("related-work-service is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down related-work-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("related-work-service shutdown complete")
	return nil
}
