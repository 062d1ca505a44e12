package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/store"
)

// Request bodies. Validation tags are enforced by decodeAndValidate before a
// handler sees the value.

// CreateSourceRequest captures a new source.
type CreateSourceRequest struct {
	Text           string   `json:"text" validate:"required"`
	Kind           string   `json:"kind" validate:"required"`
	URL            string   `json:"url,omitempty" validate:"omitempty,url"`
	Title          string   `json:"title,omitempty"`
	ExternalKey    string   `json:"external_key,omitempty"`
	HighlightColor string   `json:"highlight_color,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// UpdateSourceRequest edits source content fields. Absent fields stay as
// they are.
type UpdateSourceRequest struct {
	Text  *string   `json:"text,omitempty" validate:"omitempty,min=1"`
	URL   *string   `json:"url,omitempty"`
	Title *string   `json:"title,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

// CreateCardRequest creates a manual card.
type CreateCardRequest struct {
	Front string   `json:"front" validate:"required"`
	Back  string   `json:"back" validate:"required"`
	Hint  string   `json:"hint,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// UpdateCardRequest edits card content fields.
type UpdateCardRequest struct {
	Front *string   `json:"front,omitempty" validate:"omitempty,min=1"`
	Back  *string   `json:"back,omitempty" validate:"omitempty,min=1"`
	Hint  *string   `json:"hint,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

// SubmitReviewRequest carries one rating for a card.
type SubmitReviewRequest struct {
	Rating         string `json:"rating" validate:"required,oneof=again hard good easy"`
	ResponseTimeMs *int   `json:"response_time_ms,omitempty" validate:"omitempty,gte=0"`
}

// SetCardStatusRequest requests a card status transition.
type SetCardStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active suspended mastered"`
}

// CreateTagRequest creates a tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color,omitempty"`
}

// SyncRaindropRequest optionally bounds the import window.
type SyncRaindropRequest struct {
	Since *time.Time `json:"since,omitempty"`
}

// Response bodies.

// TagResponse is the client view of a tag.
type TagResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color,omitempty"`
}

// SourceResponse is the client view of a source.
type SourceResponse struct {
	ID             uuid.UUID     `json:"id"`
	Text           string        `json:"text"`
	Kind           string        `json:"kind"`
	URL            string        `json:"url,omitempty"`
	Title          string        `json:"title,omitempty"`
	ExternalKey    string        `json:"external_key,omitempty"`
	HighlightColor string        `json:"highlight_color,omitempty"`
	Status         string        `json:"status"`
	Tags           []TagResponse `json:"tags"`
	CardCount      int           `json:"card_count"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// CardResponse is the client view of a card, scheduling state included.
type CardResponse struct {
	ID             uuid.UUID     `json:"id"`
	SourceID       *uuid.UUID    `json:"source_id,omitempty"`
	Front          string        `json:"front"`
	Back           string        `json:"back"`
	Hint           string        `json:"hint,omitempty"`
	Status         string        `json:"status"`
	EaseFactor     float64       `json:"ease_factor"`
	IntervalDays   int           `json:"interval_days"`
	Repetitions    int           `json:"repetitions"`
	NextReviewAt   *time.Time    `json:"next_review_at,omitempty"`
	LastReviewedAt *time.Time    `json:"last_reviewed_at,omitempty"`
	Tags           []TagResponse `json:"tags"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ReviewLogResponse is one entry of a card's review history.
type ReviewLogResponse struct {
	ID                uuid.UUID `json:"id"`
	CardID            uuid.UUID `json:"card_id"`
	Rating            string    `json:"rating"`
	EaseFactorBefore  float64   `json:"ease_factor_before"`
	IntervalBefore    int       `json:"interval_before"`
	RepetitionsBefore int       `json:"repetitions_before"`
	EaseFactorAfter   float64   `json:"ease_factor_after"`
	IntervalAfter     int       `json:"interval_after"`
	RepetitionsAfter  int       `json:"repetitions_after"`
	ResponseTimeMs    *int      `json:"response_time_ms,omitempty"`
	ReviewedAt        time.Time `json:"reviewed_at"`
}

// ListResponse is the envelope for paginated collections.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DueCardsResponse is the review queue plus the full due count.
type DueCardsResponse struct {
	Cards    []CardResponse `json:"cards"`
	TotalDue int            `json:"total_due"`
}

// TagStatsResponse is a tag with its usage counts.
type TagStatsResponse struct {
	TagResponse
	SourceCount int `json:"source_count"`
	CardCount   int `json:"card_count"`
}

// SyncStatusResponse reports integration connectivity.
type SyncStatusResponse struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

func toTagResponses(tags []domain.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	return out
}

func toSourceResponse(source *domain.Source) SourceResponse {
	return SourceResponse{
		ID:             source.ID,
		Text:           source.Text,
		Kind:           string(source.Kind),
		URL:            source.URL,
		Title:          source.Title,
		ExternalKey:    source.ExternalKey,
		HighlightColor: source.HighlightColor,
		Status:         string(source.Status),
		Tags:           toTagResponses(source.Tags),
		CardCount:      source.CardCount,
		CreatedAt:      source.CreatedAt,
		UpdatedAt:      source.UpdatedAt,
	}
}

func toSourceResponses(sources []*domain.Source) []SourceResponse {
	out := make([]SourceResponse, 0, len(sources))
	for _, source := range sources {
		out = append(out, toSourceResponse(source))
	}
	return out
}

func toCardResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:             card.ID,
		SourceID:       card.SourceID,
		Front:          card.Front,
		Back:           card.Back,
		Hint:           card.Hint,
		Status:         string(card.Status),
		EaseFactor:     card.EaseFactor,
		IntervalDays:   card.IntervalDays,
		Repetitions:    card.Repetitions,
		NextReviewAt:   card.NextReviewAt,
		LastReviewedAt: card.LastReviewedAt,
		Tags:           toTagResponses(card.Tags),
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      card.UpdatedAt,
	}
}

func toCardResponses(cards []*domain.Card) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardResponse(card))
	}
	return out
}

func toReviewLogResponses(logs []*domain.ReviewLog) []ReviewLogResponse {
	out := make([]ReviewLogResponse, 0, len(logs))
	for _, log := range logs {
		out = append(out, ReviewLogResponse{
			ID:                log.ID,
			CardID:            log.CardID,
			Rating:            string(log.Rating),
			EaseFactorBefore:  log.EaseFactorBefore,
			IntervalBefore:    log.IntervalBefore,
			RepetitionsBefore: log.RepetitionsBefore,
			EaseFactorAfter:   log.EaseFactorAfter,
			IntervalAfter:     log.IntervalAfter,
			RepetitionsAfter:  log.RepetitionsAfter,
			ResponseTimeMs:    log.ResponseTimeMs,
			ReviewedAt:        log.ReviewedAt,
		})
	}
	return out
}

func toTagStatsResponse(tag *domain.Tag, usage *store.TagUsage) TagStatsResponse {
	return TagStatsResponse{
		TagResponse: TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color},
		SourceCount: usage.SourceCount,
		CardCount:   usage.CardCount,
	}
}
