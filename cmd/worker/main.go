package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/visual-rag-router/internal/bootstrap"
	"github.com/kirillkom/visual-rag-router/internal/config"
	"github.com/kirillkom/visual-rag-router/internal/infrastructure/queue/nats"
	"github.com/kirillkom/visual-rag-router/internal/observability/logging"
	"github.com/kirillkom/visual-rag-router/internal/observability/metrics"
)

const serviceName = "visual-rag-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:    logger,
		Observer:  workerMetrics,
		WithQueue: true,
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	handler := nats.NewQueryHandler(app.Queries, workerMetrics, logger)
	timeout := cfg.QueryTimeout()
	withTimeout := func(msgCtx context.Context, data []byte) []byte {
		if timeout > 0 {
			var cancel context.CancelFunc
			msgCtx, cancel = context.WithTimeout(msgCtx, timeout)
			defer cancel()
		}
		return handler(msgCtx, data)
	}

	logger.Info("worker_started", "subject", cfg.NATSQuerySubject, "queue_group", cfg.NATSQueueGroup)
	if err := app.Queue.ServeQueries(ctx, cfg.NATSQueueGroup, withTimeout); err != nil {
		logger.Error("worker_serve_failed", "error", err)
		os.Exit(1)
	}
}
