package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/api/shared"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/service"
	"github.com/lociapp/loci-api/internal/store"
)

// CardHandler serves card CRUD, the due queue and review submissions.
type CardHandler struct {
	cards   *service.CardService
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(cards *service.CardService, reviews *service.ReviewService, logger *slog.Logger) *CardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		cards:   cards,
		reviews: reviews,
		logger:  logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCard handles POST /api/cards.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.cards.CreateCard(r.Context(), service.CardContentInput{
		Front: req.Front,
		Back:  req.Back,
		Hint:  req.Hint,
		Tags:  req.Tags,
	})
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, toCardResponse(card))
}

// ListCards handles GET /api/cards with status, source_id, tag, limit and
// offset query parameters.
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	filter := store.CardFilter{
		Tag:    r.URL.Query().Get("tag"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.CardStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("source_id"); raw != "" {
		sourceID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "Invalid source_id")
			return
		}
		filter.SourceID = &sourceID
	}

	cards, total, err := h.cards.ListCards(r.Context(), filter)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ListResponse[CardResponse]{
		Items:  toCardResponses(cards),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// ListDue handles GET /api/cards/due. The response carries both the
// (possibly limited) queue and the total due count.
func (h *CardHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	limit := queryInt(r, "limit", 20)

	queue, err := h.reviews.ListDue(r.Context(), tag, limit)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DueCardsResponse{
		Cards:    toCardResponses(queue.Cards),
		TotalDue: queue.TotalDue,
	})
}

// GetCard handles GET /api/cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	card, err := h.cards.GetCard(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toCardResponse(card))
}

// UpdateCard handles PATCH /api/cards/{id}. Edits never touch the schedule.
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.cards.UpdateCard(r.Context(), id, service.UpdateCardInput{
		Front: req.Front,
		Back:  req.Back,
		Hint:  req.Hint,
		Tags:  req.Tags,
	})
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toCardResponse(card))
}

// DeleteCard handles DELETE /api/cards/{id}. Only drafts delete.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.cards.DeleteCard(r.Context(), id); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}

// SetStatus handles POST /api/cards/{id}/status.
func (h *CardHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SetCardStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.cards.SetCardStatus(r.Context(), id, domain.CardStatus(req.Status))
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toCardResponse(card))
}

// SubmitReview handles POST /api/cards/{id}/review.
func (h *CardHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.reviews.SubmitReview(r.Context(), id, domain.Rating(req.Rating), req.ResponseTimeMs)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toCardResponse(card))
}

// ReviewHistory handles GET /api/cards/{id}/history.
func (h *CardHandler) ReviewHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	logs, err := h.reviews.ReviewHistory(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ListResponse[ReviewLogResponse]{
		Items: toReviewLogResponses(logs),
		Total: len(logs),
	})
}
