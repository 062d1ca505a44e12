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

// PostgresReviewLogStore implements store.ReviewLogStore using PostgreSQL.
// The table is append-only; there is no update or delete path.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// NewPostgresReviewLogStore creates a review log store backed by the given
// connection or transaction.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

// WithTx returns a ReviewLogStore bound to the given transaction.
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{db: tx, logger: s.logger}
}

// Create implements store.ReviewLogStore.Create.
func (s *PostgresReviewLogStore) Create(ctx context.Context, log *domain.ReviewLog) error {
	query := `
		INSERT INTO review_logs
			(id, card_id, rating, ease_factor_before, interval_before,
			 repetitions_before, ease_factor_after, interval_after,
			 repetitions_after, response_time_ms, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		log.ID,
		log.CardID,
		string(log.Rating),
		log.EaseFactorBefore,
		log.IntervalBefore,
		log.RepetitionsBefore,
		log.EaseFactorAfter,
		log.IntervalAfter,
		log.RepetitionsAfter,
		log.ResponseTimeMs,
		log.ReviewedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert review log",
			slog.String("card_id", log.CardID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert review log: %w", err)
	}

	return nil
}

// ListByCard implements store.ReviewLogStore.ListByCard.
func (s *PostgresReviewLogStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewLog, error) {
	query := `
		SELECT id, card_id, rating, ease_factor_before, interval_before,
		       repetitions_before, ease_factor_after, interval_after,
		       repetitions_after, response_time_ms, reviewed_at
		FROM review_logs
		WHERE card_id = $1
		ORDER BY reviewed_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query review logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*domain.ReviewLog
	for rows.Next() {
		var log domain.ReviewLog
		err := rows.Scan(
			&log.ID,
			&log.CardID,
			&log.Rating,
			&log.EaseFactorBefore,
			&log.IntervalBefore,
			&log.RepetitionsBefore,
			&log.EaseFactorAfter,
			&log.IntervalAfter,
			&log.RepetitionsAfter,
			&log.ResponseTimeMs,
			&log.ReviewedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
