package api

import (
	"log/slog"
	"net/http"

	"github.com/lociapp/loci-api/internal/api/shared"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/service"
	"github.com/lociapp/loci-api/internal/store"
)

// SourceHandler serves the source lifecycle endpoints.
type SourceHandler struct {
	sources *service.SourceService
	logger  *slog.Logger
}

// NewSourceHandler creates a SourceHandler.
func NewSourceHandler(sources *service.SourceService, logger *slog.Logger) *SourceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceHandler{
		sources: sources,
		logger:  logger.With(slog.String("component", "source_handler")),
	}
}

// CreateSource handles POST /api/sources. Re-posting an already imported
// external key answers 200 with the existing source instead of 201.
func (h *SourceHandler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req CreateSourceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	source, created, err := h.sources.CreateSource(r.Context(), service.CreateSourceInput{
		Text:           req.Text,
		Kind:           domain.SourceKind(req.Kind),
		URL:            req.URL,
		Title:          req.Title,
		ExternalKey:    req.ExternalKey,
		HighlightColor: req.HighlightColor,
		Tags:           req.Tags,
	})
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	shared.RespondWithJSON(w, r, status, toSourceResponse(source))
}

// ListSources handles GET /api/sources with status, kind, tag, limit and
// offset query parameters.
func (h *SourceHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	filter := store.SourceFilter{
		Tag:    r.URL.Query().Get("tag"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.SourceStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind := domain.SourceKind(raw)
		filter.Kind = &kind
	}

	sources, total, err := h.sources.ListSources(r.Context(), filter)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ListResponse[SourceResponse]{
		Items:  toSourceResponses(sources),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetSource handles GET /api/sources/{id}.
func (h *SourceHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	source, err := h.sources.GetSource(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toSourceResponse(source))
}

// UpdateSource handles PATCH /api/sources/{id}.
func (h *SourceHandler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateSourceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	source, err := h.sources.UpdateSource(r.Context(), id, service.UpdateSourceInput{
		Text:  req.Text,
		URL:   req.URL,
		Title: req.Title,
		Tags:  req.Tags,
	})
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toSourceResponse(source))
}

// GenerateCards handles POST /api/sources/{id}/generate-cards.
func (h *SourceHandler) GenerateCards(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	cards, err := h.sources.GenerateCards(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, ListResponse[CardResponse]{
		Items: toCardResponses(cards),
		Total: len(cards),
	})
}

// Approve handles POST /api/sources/{id}/approve.
func (h *SourceHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	source, err := h.sources.Approve(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toSourceResponse(source))
}

// Archive handles POST /api/sources/{id}/archive.
func (h *SourceHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	source, err := h.sources.Archive(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toSourceResponse(source))
}
