package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lociapp/loci-api/internal/api"
	apiMiddleware "github.com/lociapp/loci-api/internal/api/middleware"
)

// setupRouter configures all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)

	sourceHandler := api.NewSourceHandler(app.sourceService, app.logger)
	cardHandler := api.NewCardHandler(app.cardService, app.reviewService, app.logger)
	tagHandler := api.NewTagHandler(app.tagService, app.logger)
	syncHandler := api.NewSyncHandler(app.raindropSync, app.logger)
	exportHandler := api.NewExportHandler(app.exporter, app.logger)

	auth := apiMiddleware.NewAPIKeyAuth(app.config.Auth.APIKey)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Route("/sources", func(r chi.Router) {
			r.Post("/", sourceHandler.CreateSource)
			r.Get("/", sourceHandler.ListSources)
			r.Get("/{id}", sourceHandler.GetSource)
			r.Patch("/{id}", sourceHandler.UpdateSource)
			r.Post("/{id}/generate-cards", sourceHandler.GenerateCards)
			r.Post("/{id}/approve", sourceHandler.Approve)
			r.Post("/{id}/archive", sourceHandler.Archive)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Post("/", cardHandler.CreateCard)
			r.Get("/", cardHandler.ListCards)
			r.Get("/due", cardHandler.ListDue)
			r.Get("/{id}", cardHandler.GetCard)
			r.Patch("/{id}", cardHandler.UpdateCard)
			r.Delete("/{id}", cardHandler.DeleteCard)
			r.Post("/{id}/status", cardHandler.SetStatus)
			r.Post("/{id}/review", cardHandler.SubmitReview)
			r.Get("/{id}/history", cardHandler.ReviewHistory)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagHandler.ListTags)
			r.Post("/", tagHandler.CreateTag)
			r.Get("/{id}", tagHandler.GetTag)
			r.Get("/{id}/stats", tagHandler.TagStats)
			r.Delete("/{id}", tagHandler.DeleteTag)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/raindrop", syncHandler.SyncRaindrop)
			r.Get("/raindrop/status", syncHandler.SyncStatus)
		})

		r.Route("/export", func(r chi.Router) {
			r.Post("/obsidian", exportHandler.ExportObsidian)
			r.Get("/obsidian/status", exportHandler.ExportStatus)
		})
	})

	// Health check stays unauthenticated for liveness probes.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
