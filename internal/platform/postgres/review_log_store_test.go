package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lociapp/loci-api/internal/domain"
)

func newTestReviewLog(t *testing.T) *domain.ReviewLog {
	t.Helper()

	responseTime := 3200
	log, err := domain.NewReviewLog(
		uuid.New(),
		domain.RatingGood,
		domain.SchedulingState{EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2},
		domain.SchedulingState{EaseFactor: 2.5, IntervalDays: 15, Repetitions: 3},
		&responseTime,
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return log
}

func TestNewPostgresReviewLogStore(t *testing.T) {
	t.Parallel()

	t.Run("nil db panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { NewPostgresReviewLogStore(nil, nil) })
	})

	t.Run("nil logger uses default", func(t *testing.T) {
		t.Parallel()
		s := NewPostgresReviewLogStore(&recordingDBTX{}, nil)
		assert.NotNil(t, s.logger)
	})
}

// The insert statement must pass exactly one argument per placeholder, in
// column order, or the driver rejects every review submission.
func TestReviewLogCreateStatementArity(t *testing.T) {
	t.Parallel()

	db := &recordingDBTX{}
	s := NewPostgresReviewLogStore(db, nil)
	log := newTestReviewLog(t)

	require.NoError(t, s.Create(context.Background(), log))
	require.Len(t, db.statements, 1)

	stmt := db.statements[0]
	require.Equal(t, placeholderCount(stmt.query), len(stmt.args),
		"argument count must match the placeholder count")
	require.Len(t, stmt.args, 11)

	assert.Equal(t, log.ID, stmt.args[0])
	assert.Equal(t, log.CardID, stmt.args[1])
	assert.Equal(t, string(domain.RatingGood), stmt.args[2])
	assert.Equal(t, log.EaseFactorBefore, stmt.args[3])
	assert.Equal(t, log.IntervalBefore, stmt.args[4])
	assert.Equal(t, log.RepetitionsBefore, stmt.args[5])
	assert.Equal(t, log.EaseFactorAfter, stmt.args[6])
	assert.Equal(t, log.IntervalAfter, stmt.args[7])
	assert.Equal(t, log.RepetitionsAfter, stmt.args[8])
	assert.Equal(t, log.ResponseTimeMs, stmt.args[9])
	assert.Equal(t, log.ReviewedAt, stmt.args[10])
}

func TestReviewLogCreateExecError(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection reset")
	db := &recordingDBTX{execErr: dbErr}
	s := NewPostgresReviewLogStore(db, nil)

	err := s.Create(context.Background(), newTestReviewLog(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "failed to insert review log")
}

func TestReviewLogListByCardQueryError(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection reset")
	db := &recordingDBTX{queryErr: dbErr}
	s := NewPostgresReviewLogStore(db, nil)

	_, err := s.ListByCard(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
}
