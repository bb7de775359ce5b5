package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	httpadapter "github.com/basinhydro/precip-disagg/internal/adapter/http"
	kafkaadapter "github.com/basinhydro/precip-disagg/internal/adapter/kafka"
	"github.com/basinhydro/precip-disagg/internal/config"
	"github.com/basinhydro/precip-disagg/internal/observability"
	"github.com/basinhydro/precip-disagg/internal/pipeline"
	"github.com/basinhydro/precip-disagg/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Kafka mirroring is feature-flagged via KAFKA_ENABLED.
	var mirror pipeline.Mirror
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		mirror = writer
		logger.Info("kafka mirroring enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka mirroring disabled")
	}

	p := pipeline.New(db, db, db, mirror, logger, metrics, pipeline.Options{
		RunID:           uuid.NewString(),
		BaseSeed:        cfg.BaseSeed,
		Granularity:     cfg.Granularity,
		FallbackEnabled: cfg.FallbackEnabled,
		GapPolicy:       cfg.GapPolicy,
		Workers:         cfg.Workers,
		HistoryStart:    cfg.HistoryStart,
		HistoryEnd:      cfg.HistoryEnd,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, db, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the disaggregation, then begin shutdown.
	runErr := make(chan error, 1)
	go func() {
		defer stop()
		report, err := p.Run(ctx)
		if err != nil {
			logger.Error("run failed", "error", err)
			runErr <- err
			return
		}
		logger.Info("run report",
			"run_id", report.RunID,
			"blocks", report.BlocksTotal,
			"results_written", report.ResultsWritten,
			"zero_blocks", report.ZeroBlocks,
			"fallbacks", report.Fallbacks,
			"no_basis", len(report.NoBasis),
			"sum_violations", len(report.SumViolations),
			"data_gaps", report.DataGaps,
			"triples_rejected", report.TriplesRejected,
		)
		runErr <- nil
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if err := <-runErr; err != nil {
		os.Exit(1)
	}
}
