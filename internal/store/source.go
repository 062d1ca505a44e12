package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
)

// SourceFilter narrows List results. Zero values mean "no filter".
type SourceFilter struct {
	Status *domain.SourceStatus
	Kind   *domain.SourceKind
	Tag    string // normalized tag name
	Offset int
	Limit  int
}

// SourceStore defines the interface for source persistence.
type SourceStore interface {
	// Create saves a new source. Returns ErrDuplicateExternalKey when the
	// source carries an external key already stored for the same origin kind.
	Create(ctx context.Context, source *domain.Source) error

	// GetByID retrieves a source with its tags and derived card count.
	// Returns ErrSourceNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Source, error)

	// GetForUpdate retrieves a source and takes a row-level lock on it,
	// serializing concurrent status transitions. Must run inside a
	// transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Source, error)

	// GetByExternalKey looks a source up by (kind, external key).
	// Returns ErrSourceNotFound if no such import was recorded.
	GetByExternalKey(ctx context.Context, kind domain.SourceKind, key string) (*domain.Source, error)

	// List returns sources matching the filter, newest first, along with the
	// total count over the filtered set (ignoring offset/limit).
	List(ctx context.Context, filter SourceFilter) ([]*domain.Source, int, error)

	// ListApproved returns every approved source with its tags, for export.
	ListApproved(ctx context.Context) ([]*domain.Source, error)

	// Update persists the source's mutable fields (text, url, title, color,
	// status, updated_at). Returns ErrSourceNotFound if it does not exist.
	Update(ctx context.Context, source *domain.Source) error

	// ReplaceTags replaces the full tag set attached to a source.
	ReplaceTags(ctx context.Context, sourceID uuid.UUID, tags []domain.Tag) error

	// WithTx returns a SourceStore bound to the given transaction.
	WithTx(tx *sql.Tx) SourceStore
}
