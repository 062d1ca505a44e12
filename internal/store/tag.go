package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
)

// TagUsage reports how many sources and cards reference a tag.
type TagUsage struct {
	SourceCount int
	CardCount   int
}

// TagStore defines the interface for tag persistence. Tag names are unique
// case-insensitively; implementations receive already-normalized names from
// domain.NormalizeTagName.
type TagStore interface {
	// Create saves a new tag. Returns ErrDuplicateTagName if the name is
	// taken.
	Create(ctx context.Context, tag *domain.Tag) error

	// GetByID retrieves a tag. Returns ErrTagNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error)

	// GetOrCreate resolves a list of raw tag names to tags, creating the ones
	// that do not exist yet. Names that normalize to the empty string are
	// dropped. The result preserves input order with duplicates removed.
	GetOrCreate(ctx context.Context, names []string) ([]domain.Tag, error)

	// List returns all tags ordered by name.
	List(ctx context.Context) ([]domain.Tag, error)

	// Usage counts the sources and cards referencing a tag.
	Usage(ctx context.Context, id uuid.UUID) (*TagUsage, error)

	// Delete removes a tag and its attachments.
	// Returns ErrTagNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a TagStore bound to the given transaction.
	WithTx(tx *sql.Tx) TagStore
}
