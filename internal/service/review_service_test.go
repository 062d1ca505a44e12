package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/domain/srs"
	"github.com/lociapp/loci-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	service *ReviewService
	cards   *fakeCardStore
	logs    *fakeReviewLogStore
	now     time.Time
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	f := &reviewFixture{
		cards: newFakeCardStore(),
		logs:  newFakeReviewLogStore(),
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.service = NewReviewService(newStubDB(t), f.cards, f.logs, srs.NewDefaultService(), nil)
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *reviewFixture) seedActive(t *testing.T, state domain.SchedulingState) *domain.Card {
	t.Helper()

	card, err := domain.NewCard("question", "answer", "")
	require.NoError(t, err)
	card.SchedulingState = state
	require.NoError(t, f.cards.Create(context.Background(), card))
	return card
}

func TestSubmitReview(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("good review advances schedule and logs it", func(t *testing.T) {
		t.Parallel()
		f := newReviewFixture(t)
		card := f.seedActive(t, domain.SchedulingState{
			EaseFactor:   2.5,
			IntervalDays: 6,
			Repetitions:  2,
		})

		responseTime := 3200
		reviewed, err := f.service.SubmitReview(ctx, card.ID, domain.RatingGood, &responseTime)
		require.NoError(t, err)

		assert.Equal(t, 2.5, reviewed.EaseFactor)
		assert.Equal(t, 15, reviewed.IntervalDays)
		assert.Equal(t, 3, reviewed.Repetitions)
		require.NotNil(t, reviewed.NextReviewAt)
		assert.Equal(t, f.now.AddDate(0, 0, 15), *reviewed.NextReviewAt)
		require.NotNil(t, reviewed.LastReviewedAt)
		assert.Equal(t, f.now, *reviewed.LastReviewedAt)

		logs, err := f.logs.ListByCard(ctx, card.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		log := logs[0]
		assert.Equal(t, domain.RatingGood, log.Rating)
		assert.Equal(t, 6, log.IntervalBefore)
		assert.Equal(t, 15, log.IntervalAfter)
		assert.Equal(t, 2, log.RepetitionsBefore)
		assert.Equal(t, 3, log.RepetitionsAfter)
		require.NotNil(t, log.ResponseTimeMs)
		assert.Equal(t, 3200, *log.ResponseTimeMs)
	})

	t.Run("again resets repetitions", func(t *testing.T) {
		t.Parallel()
		f := newReviewFixture(t)
		card := f.seedActive(t, domain.SchedulingState{
			EaseFactor:   2.5,
			IntervalDays: 15,
			Repetitions:  3,
		})

		reviewed, err := f.service.SubmitReview(ctx, card.ID, domain.RatingAgain, nil)
		require.NoError(t, err)

		assert.InDelta(t, 2.3, reviewed.EaseFactor, 1e-9)
		assert.Equal(t, 1, reviewed.IntervalDays)
		assert.Zero(t, reviewed.Repetitions)
	})

	t.Run("invalid rating rejected before any read", func(t *testing.T) {
		t.Parallel()
		f := newReviewFixture(t)

		_, err := f.service.SubmitReview(ctx, uuid.New(), domain.Rating("meh"), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidRating)

		logs, err := f.logs.ListByCard(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("missing card", func(t *testing.T) {
		t.Parallel()
		f := newReviewFixture(t)

		_, err := f.service.SubmitReview(ctx, uuid.New(), domain.RatingGood, nil)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})

	t.Run("draft and suspended cards reject reviews", func(t *testing.T) {
		t.Parallel()
		f := newReviewFixture(t)

		draft, err := domain.NewDraftCard(uuid.New(), "q", "a", "")
		require.NoError(t, err)
		require.NoError(t, f.cards.Create(ctx, draft))

		suspended := f.seedActive(t, domain.NewSchedulingState(f.now))
		require.NoError(t, suspended.TransitionTo(domain.CardStatusSuspended))
		require.NoError(t, f.cards.Update(ctx, suspended))

		for _, card := range []*domain.Card{draft, suspended} {
			_, err := f.service.SubmitReview(ctx, card.ID, domain.RatingGood, nil)
			assert.ErrorIs(t, err, ErrCardNotReviewable)
		}

		logs, err := f.logs.ListByCard(ctx, draft.ID)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("mastered cards still process reviews", func(t *testing.T) {
		t.Parallel()
		f := newReviewFixture(t)

		card := f.seedActive(t, domain.SchedulingState{
			EaseFactor:   2.8,
			IntervalDays: 120,
			Repetitions:  9,
		})
		require.NoError(t, card.TransitionTo(domain.CardStatusMastered))
		require.NoError(t, f.cards.Update(ctx, card))

		reviewed, err := f.service.SubmitReview(ctx, card.ID, domain.RatingGood, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.CardStatusMastered, reviewed.Status)
		assert.Equal(t, 10, reviewed.Repetitions)
	})

	t.Run("each submission appends exactly one log", func(t *testing.T) {
		t.Parallel()
		f := newReviewFixture(t)
		card := f.seedActive(t, domain.NewSchedulingState(f.now))

		for i, rating := range []domain.Rating{domain.RatingGood, domain.RatingHard, domain.RatingAgain} {
			f.now = f.now.AddDate(0, 0, i+1)
			_, err := f.service.SubmitReview(ctx, card.ID, rating, nil)
			require.NoError(t, err)
		}

		logs, err := f.logs.ListByCard(ctx, card.ID)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		// Most recent first.
		assert.Equal(t, domain.RatingAgain, logs[0].Rating)
		assert.Equal(t, domain.RatingGood, logs[2].Rating)
	})
}

func TestListDue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newReviewFixture(t)

	never := f.seedActive(t, domain.SchedulingState{EaseFactor: 2.5})
	overdue := f.seedActive(t, domain.NewSchedulingState(f.now.AddDate(0, 0, -3)))
	dueNow := f.seedActive(t, domain.NewSchedulingState(f.now))
	future := f.seedActive(t, domain.NewSchedulingState(f.now.AddDate(0, 0, 5)))

	draft, err := domain.NewDraftCard(uuid.New(), "q", "a", "")
	require.NoError(t, err)
	require.NoError(t, f.cards.Create(ctx, draft))

	queue, err := f.service.ListDue(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, queue.TotalDue)
	require.Len(t, queue.Cards, 3)

	// Never-scheduled first, then most overdue.
	assert.Equal(t, never.ID, queue.Cards[0].ID)
	assert.Equal(t, overdue.ID, queue.Cards[1].ID)
	assert.Equal(t, dueNow.ID, queue.Cards[2].ID)

	for _, card := range queue.Cards {
		assert.NotEqual(t, future.ID, card.ID)
		assert.NotEqual(t, draft.ID, card.ID)
	}

	// A limit bounds the page but not the count.
	limited, err := f.service.ListDue(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, limited.TotalDue)
	assert.Len(t, limited.Cards, 2)
}

func TestReviewHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newReviewFixture(t)

	_, err := f.service.ReviewHistory(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	card := f.seedActive(t, domain.NewSchedulingState(f.now))
	history, err := f.service.ReviewHistory(ctx, card.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
