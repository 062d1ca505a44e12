package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/domain/srs"
	"github.com/lociapp/loci-api/internal/store"
)

// DueCards is the result of a due query: the (possibly limited) queue plus
// the total due count over the whole filtered set.
type DueCards struct {
	Cards    []*domain.Card
	TotalDue int
}

// ReviewService processes review submissions and serves the due queue. Each
// submission is one transaction: the card row is locked, the scheduler
// computes the next state, and the card update plus exactly one log entry
// commit together or not at all.
type ReviewService struct {
	db        *sql.DB
	cards     store.CardStore
	logs      store.ReviewLogStore
	scheduler srs.Service
	logger    *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewReviewService creates a ReviewService.
func NewReviewService(
	db *sql.DB,
	cards store.CardStore,
	logs store.ReviewLogStore,
	scheduler srs.Service,
	logger *slog.Logger,
) *ReviewService {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil || logs == nil {
		panic("stores cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewService{
		db:        db,
		cards:     cards,
		logs:      logs,
		scheduler: scheduler,
		logger:    logger.With(slog.String("component", "review_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListDue returns the review queue: active cards never scheduled or whose
// next review has arrived, most overdue first. An empty tag means no tag
// filter; limit <= 0 means the whole queue.
func (s *ReviewService) ListDue(ctx context.Context, tag string, limit int) (*DueCards, error) {
	cards, total, err := s.cards.ListDue(ctx, s.now(), tag, limit)
	if err != nil {
		return nil, err
	}

	return &DueCards{Cards: cards, TotalDue: total}, nil
}

// SubmitReview applies one rating to a card and returns the updated card.
// The rating is validated before anything is read. Draft and suspended cards
// reject the submission with ErrCardNotReviewable; mastered cards are still
// processed because mastery is advisory.
func (s *ReviewService) SubmitReview(
	ctx context.Context,
	cardID uuid.UUID,
	rating domain.Rating,
	responseTimeMs *int,
) (*domain.Card, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}

	var reviewed *domain.Card

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, cardID)
		if err != nil {
			return err
		}
		if !card.Reviewable() {
			return fmt.Errorf("%w: card is %s", ErrCardNotReviewable, card.Status)
		}

		now := s.now()
		before := card.SchedulingState

		after, err := s.scheduler.CalculateNextReview(before, rating, now)
		if err != nil {
			return err
		}

		card.SchedulingState = after
		card.UpdatedAt = now
		if err := cards.Update(ctx, card); err != nil {
			return err
		}

		log, err := domain.NewReviewLog(cardID, rating, before, after, responseTimeMs, now)
		if err != nil {
			return err
		}
		if err := s.logs.WithTx(tx).Create(ctx, log); err != nil {
			return err
		}

		reviewed = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review recorded",
		slog.String("card_id", cardID.String()),
		slog.String("rating", string(rating)),
		slog.Int("interval_days", reviewed.IntervalDays))

	return reviewed, nil
}

// ReviewHistory returns a card's review log, most recent first. The card
// must exist; an empty history is a valid result.
func (s *ReviewService) ReviewHistory(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewLog, error) {
	if _, err := s.cards.GetByID(ctx, cardID); err != nil {
		return nil, err
	}

	return s.logs.ListByCard(ctx, cardID)
}
