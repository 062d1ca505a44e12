package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/platform/logger"
	"github.com/lociapp/loci-api/internal/store"
)

// PostgresTagStore implements store.TagStore using PostgreSQL.
type PostgresTagStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TagStore = (*PostgresTagStore)(nil)

// NewPostgresTagStore creates a tag store backed by the given connection or
// transaction.
func NewPostgresTagStore(db store.DBTX, logger *slog.Logger) *PostgresTagStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTagStore{
		db:     db,
		logger: logger.With(slog.String("component", "tag_store")),
	}
}

// WithTx returns a TagStore bound to the given transaction.
func (s *PostgresTagStore) WithTx(tx *sql.Tx) store.TagStore {
	return &PostgresTagStore{db: tx, logger: s.logger}
}

// Create implements store.TagStore.Create.
func (s *PostgresTagStore) Create(ctx context.Context, tag *domain.Tag) error {
	query := `
		INSERT INTO tags (id, name, color, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query,
		tag.ID, tag.Name, nullString(tag.Color), tag.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return store.ErrDuplicateTagName
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert tag",
			slog.String("name", tag.Name),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert tag: %w", err)
	}

	return nil
}

// GetByID implements store.TagStore.GetByID.
func (s *PostgresTagStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	query := "SELECT id, name, COALESCE(color, ''), created_at FROM tags WHERE id = $1"

	var tag domain.Tag
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return &tag, nil
}

// GetOrCreate implements store.TagStore.GetOrCreate. Concurrent creation of
// the same name is resolved by retrying the lookup after a unique violation.
func (s *PostgresTagStore) GetOrCreate(ctx context.Context, names []string) ([]domain.Tag, error) {
	var tags []domain.Tag
	seen := make(map[string]bool, len(names))

	for _, raw := range names {
		name := domain.NormalizeTagName(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag, err := s.getByName(ctx, name)
		if err == nil {
			tags = append(tags, *tag)
			continue
		}
		if !store.IsNotFoundError(err) {
			return nil, err
		}

		created, err := domain.NewTag(name, "")
		if err != nil {
			return nil, err
		}
		if err := s.Create(ctx, created); err != nil {
			if store.IsDuplicateError(err) {
				tag, err := s.getByName(ctx, name)
				if err != nil {
					return nil, err
				}
				tags = append(tags, *tag)
				continue
			}
			return nil, err
		}
		tags = append(tags, *created)
	}

	return tags, nil
}

func (s *PostgresTagStore) getByName(ctx context.Context, name string) (*domain.Tag, error) {
	query := "SELECT id, name, COALESCE(color, ''), created_at FROM tags WHERE name = $1"

	var tag domain.Tag
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag by name: %w", err)
	}

	return &tag, nil
}

// List implements store.TagStore.List.
func (s *PostgresTagStore) List(ctx context.Context) ([]domain.Tag, error) {
	query := "SELECT id, name, COALESCE(color, ''), created_at FROM tags ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

// Usage implements store.TagStore.Usage.
func (s *PostgresTagStore) Usage(ctx context.Context, id uuid.UUID) (*store.TagUsage, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM source_tags WHERE tag_id = $1),
			(SELECT COUNT(*) FROM card_tags WHERE tag_id = $1)`

	var usage store.TagUsage
	err := s.db.QueryRowContext(ctx, query, id).Scan(&usage.SourceCount, &usage.CardCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count tag usage: %w", err)
	}

	return &usage, nil
}

// Delete implements store.TagStore.Delete. Join table rows cascade at the
// schema level.
func (s *PostgresTagStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return store.ErrTagNotFound
	}

	return nil
}
