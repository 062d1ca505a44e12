// Package srs implements the spaced-repetition scheduling algorithm (SM-2
// family). It is pure computation over immutable scheduling-state values:
// the caller passes the current state and a rating, and gets the next state
// back. Persistence and logging belong to the caller.
package srs

import (
	"github.com/lociapp/loci-api/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm.
type Params struct {
	// Ease factor bounds. The floor prevents runaway short intervals;
	// the ceiling keeps Easy streaks from growing intervals absurdly fast.
	MinEaseFactor float64
	MaxEaseFactor float64

	// EaseAdjustment is applied to the ease factor per rating.
	EaseAdjustment map[domain.Rating]float64

	// HardIntervalMultiplier grows the interval on a Hard rating.
	HardIntervalMultiplier float64

	// EasyBonus is the extra multiplier applied on an Easy rating on top of
	// the Good branch's interval.
	EasyBonus float64

	// FirstIntervalDays and SecondIntervalDays are the fixed intervals for a
	// card's first and second remembered reviews on the Good branch.
	FirstIntervalDays  int
	SecondIntervalDays int

	// LapseIntervalDays is the interval a card resets to on an Again rating.
	LapseIntervalDays int

	// Interval bounds in days.
	MinIntervalDays int
	MaxIntervalDays int
}

// NewDefaultParams returns the standard SM-2 parameter set.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: 1.3,
		MaxEaseFactor: 3.0,

		EaseAdjustment: map[domain.Rating]float64{
			domain.RatingAgain: -0.20,
			domain.RatingHard:  -0.15,
			domain.RatingGood:  0.0,
			domain.RatingEasy:  0.15,
		},

		HardIntervalMultiplier: 1.2,
		EasyBonus:              1.3,

		FirstIntervalDays:  1,
		SecondIntervalDays: 6,
		LapseIntervalDays:  1,

		MinIntervalDays: 1,
		MaxIntervalDays: 365,
	}
}
