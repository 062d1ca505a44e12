package api

import (
	"log/slog"
	"net/http"

	"github.com/lociapp/loci-api/internal/api/shared"
	"github.com/lociapp/loci-api/internal/export"
	"github.com/lociapp/loci-api/internal/service"
)

// ExportHandler serves the Obsidian vault export endpoints. The exporter is
// optional at startup, so a nil exporter maps to 503.
type ExportHandler struct {
	exporter *export.ObsidianExporter
	logger   *slog.Logger
}

// NewExportHandler creates an ExportHandler. exporter may be nil when no
// vault path is configured.
func NewExportHandler(exporter *export.ObsidianExporter, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		exporter: exporter,
		logger:   logger.With(slog.String("component", "export_handler")),
	}
}

// ExportObsidian handles POST /api/export/obsidian.
func (h *ExportHandler) ExportObsidian(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		RespondWithMappedError(w, r, service.ErrExportUnavailable)
		return
	}

	result, err := h.exporter.ExportAll(r.Context())
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.Info("obsidian export completed",
		slog.Int("sources_exported", result.SourcesExported),
		slog.Int("cards_exported", result.CardsExported))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ExportStatus handles GET /api/export/obsidian/status.
func (h *ExportHandler) ExportStatus(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		shared.RespondWithJSON(w, r, http.StatusOK, export.Status{
			Configured: false,
			Message:    "Obsidian export is not configured",
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.exporter.Status())
}
