// Package main is the standalone MCP entry point. It needs no external
// databases: results are cached in memory and feedback goes to SQLite.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/contraceptive-compass-server/internal/config"
	"github.com/contraceptive-compass-server/internal/mcp"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadLiteConfig()

	// stdout carries the protocol, so everything else goes to stderr
	logger, logCloser, err := config.NewLogger(cfg.LoggingConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	logger.WithField("data_dir", cfg.DataDir).Info("Starting Contraceptive Compass MCP Server (Lite)")

	server, err := mcp.NewLiteServer(cfg, mcp.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		server.Close()
		os.Exit(1)
	}

	logger.Info("Contraceptive Compass MCP Server (Lite) stopped")
}
