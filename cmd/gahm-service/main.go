// Command gahm-service consumes ATCF tracks from Kafka, solves the GAHM
// vortex on the configured grid and publishes one field snapshot per solve
// time.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/storm-gahm/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-gahm/internal/adapter/kafka"
	"github.com/couchcryptid/storm-gahm/internal/codec"
	"github.com/couchcryptid/storm-gahm/internal/config"
	"github.com/couchcryptid/storm-gahm/internal/observability"
	"github.com/couchcryptid/storm-gahm/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.TracingServiceName,
	}, logger)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}

	enc, err := codec.New(cfg.FieldEncoding)
	if err != nil {
		logger.Error("invalid field encoding", "error", err)
		os.Exit(1)
	}
	g, err := cfg.Grid.WindGrid()
	if err != nil {
		logger.Error("invalid grid", "error", err)
		os.Exit(1)
	}

	storms := pipeline.NewStormIndex()
	transformer, err := pipeline.NewTransformer(pipeline.TransformerConfig{
		Grid:      g,
		Step:      cfg.SolveStep,
		Workers:   cfg.SolveWorkers,
		Encoder:   enc,
		CacheSize: cfg.TrackCacheSize,
	}, storms, metrics, logger)
	if err != nil {
		logger.Error("failed to build transformer", "error", err)
		os.Exit(1)
	}
	logger.Info("solver configured",
		"grid", g.String(),
		"step", cfg.SolveStep,
		"workers", cfg.SolveWorkers,
		"encoding", enc.ContentType(),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, storms, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
