package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/platform/logger"
	"github.com/lociapp/loci-api/internal/store"
)

// PostgresSourceStore implements store.SourceStore using PostgreSQL.
type PostgresSourceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.SourceStore = (*PostgresSourceStore)(nil)

// NewPostgresSourceStore creates a source store backed by the given
// connection or transaction.
func NewPostgresSourceStore(db store.DBTX, logger *slog.Logger) *PostgresSourceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSourceStore{
		db:     db,
		logger: logger.With(slog.String("component", "source_store")),
	}
}

// WithTx returns a SourceStore bound to the given transaction.
func (s *PostgresSourceStore) WithTx(tx *sql.Tx) store.SourceStore {
	return &PostgresSourceStore{db: tx, logger: s.logger}
}

// sourceColumns is the scan order shared by every source query. card_count is
// derived, never stored.
const sourceColumns = `s.id, s.text, s.kind, s.url, s.title, s.external_key,
	s.highlight_color, s.status, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM cards c WHERE c.source_id = s.id) AS card_count`

// Create implements store.SourceStore.Create.
func (s *PostgresSourceStore) Create(ctx context.Context, source *domain.Source) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("source_id", source.ID.String()))

	if err := source.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO sources
			(id, text, kind, url, title, external_key, highlight_color,
			 status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		source.ID,
		source.Text,
		string(source.Kind),
		nullString(source.URL),
		nullString(source.Title),
		nullString(source.ExternalKey),
		nullString(source.HighlightColor),
		string(source.Status),
		source.CreatedAt,
		source.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "sources_kind_external_key_idx") {
			log.Debug("external key already imported",
				slog.String("kind", string(source.Kind)),
				slog.String("external_key", source.ExternalKey))
			return store.ErrDuplicateExternalKey
		}
		if isUniqueViolation(err, "") {
			return store.ErrDuplicate
		}
		log.Error("failed to insert source", slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert source: %w", err)
	}

	if len(source.Tags) > 0 {
		if err := replaceTags(ctx, s.db, sourceTagOwner, source.ID, source.Tags); err != nil {
			return err
		}
	}

	return nil
}

// GetByID implements store.SourceStore.GetByID.
func (s *PostgresSourceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	query := "SELECT " + sourceColumns + " FROM sources s WHERE s.id = $1"
	return s.getOne(ctx, query, id)
}

// GetForUpdate implements store.SourceStore.GetForUpdate. The lock clause
// requires the store to be transaction-bound via WithTx.
func (s *PostgresSourceStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	query := "SELECT " + sourceColumns + " FROM sources s WHERE s.id = $1 FOR UPDATE OF s"
	return s.getOne(ctx, query, id)
}

// GetByExternalKey implements store.SourceStore.GetByExternalKey.
func (s *PostgresSourceStore) GetByExternalKey(ctx context.Context, kind domain.SourceKind, key string) (*domain.Source, error) {
	query := "SELECT " + sourceColumns + " FROM sources s WHERE s.kind = $1 AND s.external_key = $2"
	return s.getOne(ctx, query, string(kind), key)
}

func (s *PostgresSourceStore) getOne(ctx context.Context, query string, args ...any) (*domain.Source, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	source, err := scanSource(row)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrSourceNotFound
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	tags, err := loadTags(ctx, s.db, sourceTagOwner, []uuid.UUID{source.ID})
	if err != nil {
		return nil, err
	}
	source.Tags = tags[source.ID]

	return source, nil
}

// List implements store.SourceStore.List.
func (s *PostgresSourceStore) List(ctx context.Context, filter store.SourceFilter) ([]*domain.Source, int, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		conditions = append(conditions, fmt.Sprintf("s.kind = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, domain.NormalizeTagName(filter.Tag))
		conditions = append(conditions, tagFilterClause(sourceTagOwner, "s", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM sources s" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sources: %w", err)
	}

	query := "SELECT " + sourceColumns + " FROM sources s" + where +
		" ORDER BY s.created_at DESC, s.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	sources, err := s.querySources(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return sources, total, nil
}

// ListApproved implements store.SourceStore.ListApproved.
func (s *PostgresSourceStore) ListApproved(ctx context.Context) ([]*domain.Source, error) {
	query := "SELECT " + sourceColumns + ` FROM sources s
		WHERE s.status = $1 ORDER BY s.created_at, s.id`
	return s.querySources(ctx, query, string(domain.SourceStatusApproved))
}

func (s *PostgresSourceStore) querySources(ctx context.Context, query string, args ...any) ([]*domain.Source, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []*domain.Source
	var ids []uuid.UUID
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
		ids = append(ids, source.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}

	tags, err := loadTags(ctx, s.db, sourceTagOwner, ids)
	if err != nil {
		return nil, err
	}
	for _, source := range sources {
		source.Tags = tags[source.ID]
	}

	return sources, nil
}

// Update implements store.SourceStore.Update.
func (s *PostgresSourceStore) Update(ctx context.Context, source *domain.Source) error {
	if err := source.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE sources SET
			text = $2, url = $3, title = $4, highlight_color = $5,
			status = $6, updated_at = $7
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		source.ID,
		source.Text,
		nullString(source.URL),
		nullString(source.Title),
		nullString(source.HighlightColor),
		string(source.Status),
		source.UpdatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update source",
			slog.String("source_id", source.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update source: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return store.ErrSourceNotFound
	}

	return nil
}

// ReplaceTags implements store.SourceStore.ReplaceTags.
func (s *PostgresSourceStore) ReplaceTags(ctx context.Context, sourceID uuid.UUID, tags []domain.Tag) error {
	return replaceTags(ctx, s.db, sourceTagOwner, sourceID, tags)
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanSource(row scanner) (*domain.Source, error) {
	var source domain.Source
	var url, title, externalKey, highlightColor sql.NullString

	err := row.Scan(
		&source.ID,
		&source.Text,
		&source.Kind,
		&url,
		&title,
		&externalKey,
		&highlightColor,
		&source.Status,
		&source.CreatedAt,
		&source.UpdatedAt,
		&source.CardCount,
	)
	if err != nil {
		return nil, err
	}

	source.URL = url.String
	source.Title = title.String
	source.ExternalKey = externalKey.String
	source.HighlightColor = highlightColor.String

	return &source, nil
}
