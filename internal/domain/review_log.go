package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rating is the user's recall-quality feedback for one review.
type Rating string

// The four rating levels, ordered from complete failure to effortless recall.
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// IsValid reports whether the rating is one of the four known levels.
func (r Rating) IsValid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// ErrEmptyLogCardID is returned when a review log has no card ID.
var ErrEmptyLogCardID = errors.New("review log card ID cannot be empty")

// ReviewLog is the immutable record of one rating event. It captures the
// scheduling state on both sides of the update for analytics and algorithm
// tuning. Logs are append-only: they are never edited or removed.
type ReviewLog struct {
	ID     uuid.UUID `json:"id"`
	CardID uuid.UUID `json:"card_id"`
	Rating Rating    `json:"rating"`

	EaseFactorBefore  float64 `json:"ease_factor_before"`
	IntervalBefore    int     `json:"interval_before"`
	RepetitionsBefore int     `json:"repetitions_before"`

	EaseFactorAfter  float64 `json:"ease_factor_after"`
	IntervalAfter    int     `json:"interval_after"`
	RepetitionsAfter int     `json:"repetitions_after"`

	ResponseTimeMs *int      `json:"response_time_ms,omitempty"`
	ReviewedAt     time.Time `json:"reviewed_at"`
}

// NewReviewLog builds the log entry for one review submission.
func NewReviewLog(
	cardID uuid.UUID,
	rating Rating,
	before, after SchedulingState,
	responseTimeMs *int,
	reviewedAt time.Time,
) (*ReviewLog, error) {
	if cardID == uuid.Nil {
		return nil, ErrEmptyLogCardID
	}

	if !rating.IsValid() {
		return nil, ErrInvalidRating
	}

	return &ReviewLog{
		ID:                uuid.New(),
		CardID:            cardID,
		Rating:            rating,
		EaseFactorBefore:  before.EaseFactor,
		IntervalBefore:    before.IntervalDays,
		RepetitionsBefore: before.Repetitions,
		EaseFactorAfter:   after.EaseFactor,
		IntervalAfter:     after.IntervalDays,
		RepetitionsAfter:  after.Repetitions,
		ResponseTimeMs:    responseTimeMs,
		ReviewedAt:        reviewedAt,
	}, nil
}
