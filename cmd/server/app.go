package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lociapp/loci-api/internal/config"
	"github.com/lociapp/loci-api/internal/domain/srs"
	"github.com/lociapp/loci-api/internal/export"
	"github.com/lociapp/loci-api/internal/generation"
	"github.com/lociapp/loci-api/internal/platform/gemini"
	"github.com/lociapp/loci-api/internal/platform/postgres"
	"github.com/lociapp/loci-api/internal/platform/raindrop"
	"github.com/lociapp/loci-api/internal/service"
	syncsvc "github.com/lociapp/loci-api/internal/service/sync"
	"github.com/lociapp/loci-api/internal/store"
	"github.com/lociapp/loci-api/internal/task"
)

// application holds the shared dependencies so wiring and shutdown live in
// one place. The integrations (LLM drafting, Raindrop import, Obsidian
// export) are optional and stay nil when not configured.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	sourceStore    store.SourceStore
	cardStore      store.CardStore
	tagStore       store.TagStore
	reviewLogStore store.ReviewLogStore

	srsService srs.Service

	sourceService *service.SourceService
	cardService   *service.CardService
	reviewService *service.ReviewService
	tagService    *service.TagService

	raindropSync *syncsvc.RaindropSync
	exporter     *export.ObsidianExporter
	syncRunner   *task.SyncRunner
}

// newApplication wires stores, services, and the optional integrations from
// configuration.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.sourceStore = postgres.NewPostgresSourceStore(db, logger)
	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.tagStore = postgres.NewPostgresTagStore(db, logger)
	app.reviewLogStore = postgres.NewPostgresReviewLogStore(db, logger)

	app.srsService = srs.NewDefaultService()

	// The generator stays a nil interface when no API key is configured;
	// generation requests then fail as unavailable instead of at startup.
	var generator generation.Generator
	if cfg.LLM.GeminiAPIKey != "" {
		g, err := gemini.NewGenerator(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize card generator: %w", err)
		}
		generator = g
		logger.Info("Card generator initialized", slog.String("model", cfg.LLM.ModelName))
	} else {
		logger.Info("Card generator disabled, no API key configured")
	}

	app.sourceService = service.NewSourceService(
		db,
		app.sourceStore,
		app.cardStore,
		app.tagStore,
		generator,
		logger,
	)
	app.cardService = service.NewCardService(db, app.cardStore, app.tagStore, logger)
	app.reviewService = service.NewReviewService(
		db,
		app.cardStore,
		app.reviewLogStore,
		app.srsService,
		logger,
	)
	app.tagService = service.NewTagService(app.tagStore, logger)

	if cfg.Raindrop.Token != "" {
		client := raindrop.NewClient(cfg.Raindrop.Token, logger)
		app.raindropSync = syncsvc.NewRaindropSync(client, app.sourceService, logger)
		logger.Info("Raindrop integration initialized")

		if cfg.Raindrop.PollIntervalSeconds > 0 {
			interval := time.Duration(cfg.Raindrop.PollIntervalSeconds) * time.Second
			app.syncRunner = task.NewSyncRunner(interval, func(ctx context.Context, since time.Time) error {
				_, err := app.raindropSync.Sync(ctx, since)
				return err
			}, logger)
			logger.Info("Background highlight sync enabled",
				slog.Duration("interval", interval))
		}
	} else {
		logger.Info("Raindrop integration disabled, no token configured")
	}

	if cfg.Export.VaultPath != "" {
		app.exporter = export.NewObsidianExporter(
			cfg.Export.VaultPath,
			cfg.Export.LearningsFolder,
			app.sourceStore,
			app.cardStore,
			logger,
		)
		logger.Info("Obsidian export initialized",
			slog.String("vault_path", cfg.Export.VaultPath))
	} else {
		logger.Info("Obsidian export disabled, no vault path configured")
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the background sync runner, if any, then serves HTTP until
// shutdown.
func (app *application) Run(ctx context.Context) error {
	if app.syncRunner != nil {
		app.syncRunner.Start()
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup releases application resources during shutdown.
func (app *application) cleanup() {
	if app.syncRunner != nil {
		app.syncRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
