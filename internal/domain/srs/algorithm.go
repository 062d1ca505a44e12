package srs

import (
	"math"
	"time"

	"github.com/lociapp/loci-api/internal/domain"
)

// nextEaseFactor applies the rating's ease adjustment, clamped to the
// configured bounds. The floor guarantees the ease factor never drops below
// params.MinEaseFactor no matter how many Again/Hard ratings accumulate.
func nextEaseFactor(current float64, rating domain.Rating, params *Params) float64 {
	ef := current + params.EaseAdjustment[rating]

	if ef < params.MinEaseFactor {
		ef = params.MinEaseFactor
	}
	if ef > params.MaxEaseFactor {
		ef = params.MaxEaseFactor
	}

	return ef
}

// nextInterval computes the new interval in days.
//
//   - Again resets to the lapse interval.
//   - Hard multiplies the previous interval by the hard multiplier, never
//     dropping below one day.
//   - Good uses fixed intervals for the first two repetitions, then grows the
//     previous interval by the ease factor.
//   - Easy takes the Good branch and applies the easy bonus on top.
//
// repetitions is the count after the rating has been applied (0 for Again,
// previous+1 otherwise). easeFactor is the already-adjusted value.
func nextInterval(
	previousInterval int,
	repetitions int,
	easeFactor float64,
	rating domain.Rating,
	params *Params,
) int {
	var interval int

	switch rating {
	case domain.RatingAgain:
		interval = params.LapseIntervalDays

	case domain.RatingHard:
		interval = int(math.Round(float64(previousInterval) * params.HardIntervalMultiplier))
		if interval < 1 {
			interval = 1
		}

	case domain.RatingGood:
		interval = goodInterval(previousInterval, repetitions, easeFactor, params)

	case domain.RatingEasy:
		base := goodInterval(previousInterval, repetitions, easeFactor, params)
		interval = int(math.Round(float64(base) * params.EasyBonus))
	}

	return clampInterval(interval, params)
}

// goodInterval is the Good branch shared by Good and Easy: fixed 1 and 6 day
// steps for the first two repetitions, then geometric growth by ease factor.
func goodInterval(previousInterval, repetitions int, easeFactor float64, params *Params) int {
	switch repetitions {
	case 1:
		return params.FirstIntervalDays
	case 2:
		return params.SecondIntervalDays
	default:
		return int(math.Round(float64(previousInterval) * easeFactor))
	}
}

func clampInterval(interval int, params *Params) int {
	if interval < params.MinIntervalDays {
		return params.MinIntervalDays
	}
	if interval > params.MaxIntervalDays {
		return params.MaxIntervalDays
	}
	return interval
}

// nextState produces the scheduling state after one rating. The input value
// is never mutated; a new state is returned with the next review stamped
// strictly after now (the minimum interval is one day).
func nextState(
	state domain.SchedulingState,
	rating domain.Rating,
	now time.Time,
	params *Params,
) domain.SchedulingState {
	next := state

	next.EaseFactor = nextEaseFactor(state.EaseFactor, rating, params)

	if rating == domain.RatingAgain {
		next.Repetitions = 0
	} else {
		next.Repetitions = state.Repetitions + 1
	}

	next.IntervalDays = nextInterval(state.IntervalDays, next.Repetitions, next.EaseFactor, rating, params)

	due := now.AddDate(0, 0, next.IntervalDays)
	reviewed := now
	next.NextReviewAt = &due
	next.LastReviewedAt = &reviewed

	return next
}
