package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/visual-rag-router/internal/adapters/mcp"
	"github.com/kirillkom/visual-rag-router/internal/bootstrap"
	"github.com/kirillkom/visual-rag-router/internal/config"
	"github.com/kirillkom/visual-rag-router/internal/observability/logging"
)

const (
	serviceName = "visual-rag-mcp"
	version     = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol.
	logger := logging.New(os.Stderr, serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := server.ServeStdio(mcpadapter.NewServer(app.Queries, version, logger)); err != nil {
		logger.Error("mcp_serve_failed", "error", err)
	}
}
