package api

import (
	"log/slog"
	"net/http"

	"github.com/lociapp/loci-api/internal/api/shared"
	"github.com/lociapp/loci-api/internal/service"
)

// TagHandler serves tag management endpoints.
type TagHandler struct {
	tags   *service.TagService
	logger *slog.Logger
}

// NewTagHandler creates a TagHandler.
func NewTagHandler(tags *service.TagService, logger *slog.Logger) *TagHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagHandler{
		tags:   tags,
		logger: logger.With(slog.String("component", "tag_handler")),
	}
}

// ListTags handles GET /api/tags.
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListTags(r.Context())
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	items := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		items = append(items, TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ListResponse[TagResponse]{
		Items: items,
		Total: len(items),
	})
}

// CreateTag handles POST /api/tags.
func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tag, err := h.tags.CreateTag(r.Context(), req.Name, req.Color)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, TagResponse{
		ID: tag.ID, Name: tag.Name, Color: tag.Color,
	})
}

// GetTag handles GET /api/tags/{id}.
func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tag, err := h.tags.GetTag(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TagResponse{
		ID: tag.ID, Name: tag.Name, Color: tag.Color,
	})
}

// TagStats handles GET /api/tags/{id}/stats.
func (h *TagHandler) TagStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tag, usage, err := h.tags.TagStats(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toTagStatsResponse(tag, usage))
}

// DeleteTag handles DELETE /api/tags/{id}.
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tags.DeleteTag(r.Context(), id); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}
