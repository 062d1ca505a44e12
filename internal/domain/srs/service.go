package srs

import (
	"fmt"
	"time"

	"github.com/lociapp/loci-api/internal/domain"
)

// Service defines the interface for scheduling computations. Implementations
// must be side-effect free: same inputs, same outputs, nothing mutated.
type Service interface {
	// CalculateNextReview computes the scheduling state that follows one
	// rating event at the given instant. A rating outside the four-level
	// enumeration is a caller contract violation and returns
	// domain.ErrInvalidRating before any computation.
	CalculateNextReview(
		state domain.SchedulingState,
		rating domain.Rating,
		now time.Time,
	) (domain.SchedulingState, error)
}

type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with the standard SM-2
// parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

func (s *defaultService) CalculateNextReview(
	state domain.SchedulingState,
	rating domain.Rating,
	now time.Time,
) (domain.SchedulingState, error) {
	if !rating.IsValid() {
		return domain.SchedulingState{}, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}

	return nextState(state, rating, now, s.params), nil
}
