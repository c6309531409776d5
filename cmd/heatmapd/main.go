package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/adhirajmuduli/Heatmaps/internal/adapter/http"
	"github.com/adhirajmuduli/Heatmaps/internal/config"
	"github.com/adhirajmuduli/Heatmaps/internal/observability"
	"github.com/adhirajmuduli/Heatmaps/internal/pipeline"
	"github.com/adhirajmuduli/Heatmaps/internal/session"
	"github.com/adhirajmuduli/Heatmaps/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	sessions := session.NewManager()
	generator := pipeline.New(logger, metrics)
	runner := worker.New(logger, metrics, cfg.JobQueueSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, sessions, runner, generator, httpadapter.Limits{
		MaxGridResolution:     cfg.MaxGridResolution,
		MaxIntermediateFrames: cfg.MaxIntermediateFrames,
	}, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner.Start(ctx, cfg.JobWorkers)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
