// Command performance consumes daily flock records from Kafka, assesses each
// one against the breed standard table and publishes the assessments.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/smartfarm/flock-performance-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/smartfarm/flock-performance-service/internal/adapter/kafka"
	"github.com/smartfarm/flock-performance-service/internal/config"
	"github.com/smartfarm/flock-performance-service/internal/observability"
	"github.com/smartfarm/flock-performance-service/internal/pipeline"
	"github.com/smartfarm/flock-performance-service/internal/standard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	table, report, err := standard.LoadFile(cfg.StandardsFile)
	if err != nil {
		logger.Error("failed to load standard table", "error", err)
		os.Exit(1)
	}
	metrics.ObserveStandard(table, report)
	logStandard(logger, cfg.StandardsFile, table, report)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(table)

	p := pipeline.New(reader, transformer, writer, logger, metrics, pipeline.Options{
		BatchSize:        cfg.BatchSize,
		PublishUnmatched: cfg.PublishUnmatched,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, table, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("service error", "error", err)
	}

	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func logStandard(logger *slog.Logger, path string, table *standard.Table, report standard.Report) {
	source := path
	if source == "" {
		source = "embedded:hyline_max_pro"
	}
	logger.Info("standard table loaded", "source", source, "weeks", table.Len())

	for _, s := range report.Skipped {
		logger.Warn("standard row skipped", "line", s.Line, "reason", s.Reason, "text", s.Text)
	}
	for _, c := range report.BadCells {
		logger.Warn("standard cell unreadable", "line", c.Line, "week", c.Week, "column", c.Column, "text", c.Text)
	}
}
