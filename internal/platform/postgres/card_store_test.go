package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/store"
)

func newTestCard(t *testing.T) *domain.Card {
	t.Helper()
	card, err := domain.NewCard("front", "back", "")
	require.NoError(t, err)
	return card
}

func TestNewPostgresCardStore(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewPostgresCardStore(nil, nil) })
	assert.NotNil(t, NewPostgresCardStore(&recordingDBTX{}, nil).logger)
}

func TestCardInsertStatementArity(t *testing.T) {
	t.Parallel()

	card := newTestCard(t)
	args := cardInsertArgs(card)

	require.Equal(t, placeholderCount(insertCardQuery), len(args),
		"argument count must match the placeholder count")
	require.Len(t, args, 13)

	assert.Equal(t, card.ID, args[0])
	assert.Equal(t, string(domain.CardStatusActive), args[5])
	assert.Equal(t, card.EaseFactor, args[6])
	assert.Equal(t, card.CreatedAt, args[11])
	assert.Equal(t, card.UpdatedAt, args[12])

	// An empty hint stores as NULL.
	assert.Equal(t, sql.NullString{}, args[4])

	card.Hint = "mnemonic"
	assert.Equal(t, sql.NullString{String: "mnemonic", Valid: true}, cardInsertArgs(card)[4])
}

func TestCardCreateRejectsInvalid(t *testing.T) {
	t.Parallel()

	db := &recordingDBTX{}
	s := NewPostgresCardStore(db, nil)

	card := newTestCard(t)
	card.Front = ""

	err := s.Create(context.Background(), card)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.Empty(t, db.statements, "invalid cards must not reach the database")
}

func TestCardUpdateStatementArity(t *testing.T) {
	t.Parallel()

	db := &recordingDBTX{affected: 1}
	s := NewPostgresCardStore(db, nil)

	require.NoError(t, s.Update(context.Background(), newTestCard(t)))
	require.Len(t, db.statements, 1)

	stmt := db.statements[0]
	assert.Equal(t, placeholderCount(stmt.query), len(stmt.args))
}

func TestCardUpdateNotFound(t *testing.T) {
	t.Parallel()

	db := &recordingDBTX{affected: 0}
	s := NewPostgresCardStore(db, nil)

	err := s.Update(context.Background(), newTestCard(t))
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestCardDeleteNotFound(t *testing.T) {
	t.Parallel()

	db := &recordingDBTX{affected: 0}
	s := NewPostgresCardStore(db, nil)

	err := s.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestDeleteDraftsBySource(t *testing.T) {
	t.Parallel()

	db := &recordingDBTX{affected: 3}
	s := NewPostgresCardStore(db, nil)

	sourceID := uuid.New()
	deleted, err := s.DeleteDraftsBySource(context.Background(), sourceID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	require.Len(t, db.statements, 1)
	stmt := db.statements[0]
	assert.Equal(t, []any{sourceID, string(domain.CardStatusDraft)}, stmt.args)
}

func TestScanCard(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	sourceID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)

	t.Run("all columns populated", func(t *testing.T) {
		t.Parallel()

		card, err := scanCard(&fakeScanner{values: []any{
			id, &sourceID, "front", "back",
			sql.NullString{String: "hint", Valid: true},
			domain.CardStatusActive, 2.5, 6, 2, &due, &now, now, now,
		}})
		require.NoError(t, err)

		assert.Equal(t, id, card.ID)
		require.NotNil(t, card.SourceID)
		assert.Equal(t, sourceID, *card.SourceID)
		assert.Equal(t, "hint", card.Hint)
		assert.Equal(t, 2.5, card.EaseFactor)
		assert.Equal(t, 6, card.IntervalDays)
		require.NotNil(t, card.NextReviewAt)
		assert.Equal(t, due, *card.NextReviewAt)
	})

	t.Run("null optionals", func(t *testing.T) {
		t.Parallel()

		card, err := scanCard(&fakeScanner{values: []any{
			id, nil, "front", "back",
			sql.NullString{},
			domain.CardStatusDraft, 2.5, 0, 0, nil, nil, now, now,
		}})
		require.NoError(t, err)

		assert.Nil(t, card.SourceID)
		assert.Empty(t, card.Hint)
		assert.Nil(t, card.NextReviewAt)
		assert.Nil(t, card.LastReviewedAt)
	})
}
