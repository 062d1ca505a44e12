package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
)

// ReviewLogStore defines the interface for review log persistence. Logs are
// append-only: there is deliberately no update or delete operation.
type ReviewLogStore interface {
	// Create appends one review log entry.
	Create(ctx context.Context, log *domain.ReviewLog) error

	// ListByCard returns a card's review history, most recent first.
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewLog, error)

	// WithTx returns a ReviewLogStore bound to the given transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
