package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
)

// CardFilter narrows List results. Zero values mean "no filter".
type CardFilter struct {
	Status   *domain.CardStatus
	SourceID *uuid.UUID
	Tag      string // normalized tag name
	Offset   int
	Limit    int
}

// CardStore defines the interface for card persistence.
type CardStore interface {
	// Create saves a single card.
	Create(ctx context.Context, card *domain.Card) error

	// CreateBatch saves multiple cards. Must run inside a transaction so a
	// generation batch lands atomically; use WithTx with RunInTransaction.
	CreateBatch(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card with its tags.
	// Returns ErrCardNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetForUpdate retrieves a card and takes a row-level lock on it. This is
	// how concurrent reviews of the same card are serialized: the second
	// writer blocks until the first commits, then reads the updated state.
	// Must run inside a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// List returns cards matching the filter, newest first, along with the
	// total count over the filtered set (ignoring offset/limit).
	List(ctx context.Context, filter CardFilter) ([]*domain.Card, int, error)

	// ListBySource returns all cards linked to a source, optionally filtered
	// by status.
	ListBySource(ctx context.Context, sourceID uuid.UUID, status *domain.CardStatus) ([]*domain.Card, error)

	// ListDue returns active cards whose next review is unset or has arrived,
	// ordered most-overdue first (NULL next_review sorts before everything,
	// ties broken by card ID), plus the total due count over the full
	// filtered set regardless of limit. A non-empty tag restricts the
	// candidate set before ordering; limit <= 0 means no limit.
	ListDue(ctx context.Context, now time.Time, tag string, limit int) ([]*domain.Card, int, error)

	// Update persists the card's mutable fields (content, status, scheduling
	// state, updated_at). Returns ErrCardNotFound if it does not exist.
	Update(ctx context.Context, card *domain.Card) error

	// Delete removes a card. Review logs cascade at the schema level.
	// Returns ErrCardNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteDraftsBySource removes every draft card linked to a source and
	// reports how many were removed. Used when regeneration supersedes prior
	// unapproved drafts. Must run inside a transaction with the new batch.
	DeleteDraftsBySource(ctx context.Context, sourceID uuid.UUID) (int64, error)

	// ReplaceTags replaces the full tag set attached to a card.
	ReplaceTags(ctx context.Context, cardID uuid.UUID, tags []domain.Tag) error

	// WithTx returns a CardStore bound to the given transaction.
	WithTx(tx *sql.Tx) CardStore
}
