package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/platform/logger"
	"github.com/lociapp/loci-api/internal/store"
)

// PostgresCardStore implements store.CardStore using PostgreSQL.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.CardStore = (*PostgresCardStore)(nil)

// NewPostgresCardStore creates a card store backed by the given connection or
// transaction.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// WithTx returns a CardStore bound to the given transaction.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

const cardColumns = `c.id, c.source_id, c.front, c.back, c.hint, c.status,
	c.ease_factor, c.interval_days, c.repetitions, c.next_review_at,
	c.last_reviewed_at, c.created_at, c.updated_at`

const insertCardQuery = `
	INSERT INTO cards
		(id, source_id, front, back, hint, status, ease_factor,
		 interval_days, repetitions, next_review_at, last_reviewed_at,
		 created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

func cardInsertArgs(card *domain.Card) []any {
	return []any{
		card.ID,
		card.SourceID,
		card.Front,
		card.Back,
		nullString(card.Hint),
		string(card.Status),
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		card.NextReviewAt,
		card.LastReviewedAt,
		card.CreatedAt,
		card.UpdatedAt,
	}
}

// Create implements store.CardStore.Create.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if _, err := s.db.ExecContext(ctx, insertCardQuery, cardInsertArgs(card)...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert card",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert card: %w", err)
	}

	if len(card.Tags) > 0 {
		if err := replaceTags(ctx, s.db, cardTagOwner, card.ID, card.Tags); err != nil {
			return err
		}
	}

	return nil
}

// CreateBatch implements store.CardStore.CreateBatch.
func (s *PostgresCardStore) CreateBatch(ctx context.Context, cards []*domain.Card) error {
	for _, card := range cards {
		if err := s.Create(ctx, card); err != nil {
			return fmt.Errorf("failed to insert card batch: %w", err)
		}
	}
	return nil
}

// GetByID implements store.CardStore.GetByID.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := "SELECT " + cardColumns + " FROM cards c WHERE c.id = $1"
	return s.getOne(ctx, query, id)
}

// GetForUpdate implements store.CardStore.GetForUpdate. The lock clause
// requires the store to be transaction-bound via WithTx.
func (s *PostgresCardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := "SELECT " + cardColumns + " FROM cards c WHERE c.id = $1 FOR UPDATE OF c"
	return s.getOne(ctx, query, id)
}

func (s *PostgresCardStore) getOne(ctx context.Context, query string, args ...any) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	card, err := scanCard(row)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	tags, err := loadTags(ctx, s.db, cardTagOwner, []uuid.UUID{card.ID})
	if err != nil {
		return nil, err
	}
	card.Tags = tags[card.ID]

	return card, nil
}

// List implements store.CardStore.List.
func (s *PostgresCardStore) List(ctx context.Context, filter store.CardFilter) ([]*domain.Card, int, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if filter.SourceID != nil {
		args = append(args, *filter.SourceID)
		conditions = append(conditions, fmt.Sprintf("c.source_id = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, domain.NormalizeTagName(filter.Tag))
		conditions = append(conditions, tagFilterClause(cardTagOwner, "c", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM cards c" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	query := "SELECT " + cardColumns + " FROM cards c" + where +
		" ORDER BY c.created_at DESC, c.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	cards, err := s.queryCards(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return cards, total, nil
}

// ListBySource implements store.CardStore.ListBySource.
func (s *PostgresCardStore) ListBySource(ctx context.Context, sourceID uuid.UUID, status *domain.CardStatus) ([]*domain.Card, error) {
	query := "SELECT " + cardColumns + " FROM cards c WHERE c.source_id = $1"
	args := []any{sourceID}
	if status != nil {
		args = append(args, string(*status))
		query += " AND c.status = $2"
	}
	query += " ORDER BY c.created_at, c.id"

	return s.queryCards(ctx, query, args...)
}

// dueCondition selects active cards that have never been scheduled or whose
// next review time has arrived.
const dueCondition = "c.status = 'active' AND (c.next_review_at IS NULL OR c.next_review_at <= $1)"

// ListDue implements store.CardStore.ListDue.
func (s *PostgresCardStore) ListDue(ctx context.Context, now time.Time, tag string, limit int) ([]*domain.Card, int, error) {
	where := " WHERE " + dueCondition
	args := []any{now}
	if tag != "" {
		args = append(args, domain.NormalizeTagName(tag))
		where += " AND " + tagFilterClause(cardTagOwner, "c", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM cards c" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count due cards: %w", err)
	}

	// Never-scheduled cards sort first, then most overdue. Card ID breaks
	// ties so the ordering is stable across requests.
	query := "SELECT " + cardColumns + " FROM cards c" + where +
		" ORDER BY c.next_review_at ASC NULLS FIRST, c.id ASC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	cards, err := s.queryCards(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return cards, total, nil
}

func (s *PostgresCardStore) queryCards(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	var ids []uuid.UUID
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
		ids = append(ids, card.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}

	tags, err := loadTags(ctx, s.db, cardTagOwner, ids)
	if err != nil {
		return nil, err
	}
	for _, card := range cards {
		card.Tags = tags[card.ID]
	}

	return cards, nil
}

// Update implements store.CardStore.Update.
func (s *PostgresCardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards SET
			front = $2, back = $3, hint = $4, status = $5,
			ease_factor = $6, interval_days = $7, repetitions = $8,
			next_review_at = $9, last_reviewed_at = $10, updated_at = $11
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		card.ID,
		card.Front,
		card.Back,
		nullString(card.Hint),
		string(card.Status),
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		card.NextReviewAt,
		card.LastReviewedAt,
		card.UpdatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update card",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update card: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return store.ErrCardNotFound
	}

	return nil
}

// Delete implements store.CardStore.Delete.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return store.ErrCardNotFound
	}

	return nil
}

// DeleteDraftsBySource implements store.CardStore.DeleteDraftsBySource.
func (s *PostgresCardStore) DeleteDraftsBySource(ctx context.Context, sourceID uuid.UUID) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM cards WHERE source_id = $1 AND status = $2",
		sourceID, string(domain.CardStatusDraft))
	if err != nil {
		return 0, fmt.Errorf("failed to delete draft cards: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}

	if affected > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Debug("superseded draft cards",
			slog.String("source_id", sourceID.String()),
			slog.Int64("deleted", affected))
	}

	return affected, nil
}

// ReplaceTags implements store.CardStore.ReplaceTags.
func (s *PostgresCardStore) ReplaceTags(ctx context.Context, cardID uuid.UUID, tags []domain.Tag) error {
	return replaceTags(ctx, s.db, cardTagOwner, cardID, tags)
}

func scanCard(row scanner) (*domain.Card, error) {
	var card domain.Card
	var hint sql.NullString

	err := row.Scan(
		&card.ID,
		&card.SourceID,
		&card.Front,
		&card.Back,
		&hint,
		&card.Status,
		&card.EaseFactor,
		&card.IntervalDays,
		&card.Repetitions,
		&card.NextReviewAt,
		&card.LastReviewedAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Hint = hint.String

	return &card, nil
}
