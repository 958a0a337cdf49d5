// Package main implements the entry point for the askdb server, which turns
// natural-language questions into SQL, executes them, and serves summaries
// and rendered charts over HTTP.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg := logger.Setup(cfg.Server)
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"workers", cfg.Worker.Count,
		"llm_configured", cfg.LLMEnabled())

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, logg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	app.start()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
