// Package main implements the entry point for the Loci API server,
// which turns captured reading highlights into spaced-repetition
// flashcards and schedules their review.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/lociapp/loci-api/internal/config"
	"github.com/lociapp/loci-api/internal/platform/logger"
	"github.com/lociapp/loci-api/internal/platform/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("llm_configured", cfg.LLM.GeminiAPIKey != ""),
		slog.Bool("raindrop_configured", cfg.Raindrop.Token != ""),
		slog.Bool("export_configured", cfg.Export.VaultPath != ""))

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return err
	}

	if err := postgres.MigrateUp(db); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	appLogger.Info("Database migrations applied")

	ctx := context.Background()

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
