package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CardStatus represents a card's position in the draft-to-mastered lifecycle.
type CardStatus string

// Possible card status values.
const (
	// CardStatusDraft means the card was proposed (by the drafting
	// collaborator or a manual edit flow) but not yet approved.
	CardStatusDraft CardStatus = "draft"

	// CardStatusActive means the card is in the review rotation.
	CardStatusActive CardStatus = "active"

	// CardStatusSuspended means the card is temporarily excluded from due
	// queries. It can be resumed to active at any time.
	CardStatusSuspended CardStatus = "suspended"

	// CardStatusMastered means sustained long-interval success. Mastery is
	// advisory: the scheduler still processes a mastered card if it is rated.
	CardStatusMastered CardStatus = "mastered"
)

// cardTransitions is the central transition table for cards.
var cardTransitions = map[CardStatus][]CardStatus{
	CardStatusDraft:     {CardStatusActive},
	CardStatusActive:    {CardStatusSuspended, CardStatusMastered},
	CardStatusSuspended: {CardStatusActive},
	CardStatusMastered:  {},
}

// CanTransitionTo reports whether the status may move to target.
func (s CardStatus) CanTransitionTo(target CardStatus) bool {
	for _, allowed := range cardTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Card-specific validation errors.
var (
	ErrEmptyCardID    = errors.New("card ID cannot be empty")
	ErrEmptyCardFront = errors.New("card front cannot be empty")
	ErrEmptyCardBack  = errors.New("card back cannot be empty")
)

// DefaultEaseFactor is the ease a card starts with. Higher ease grows
// intervals faster on successful reviews.
const DefaultEaseFactor = 2.5

// SchedulingState is the immutable spaced-repetition state of a card. The
// scheduler consumes one value and produces the next; it never mutates in
// place.
type SchedulingState struct {
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   *time.Time `json:"next_review_at,omitempty"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// NewSchedulingState returns the default state for a freshly activated card:
// ease 2.5, no interval, no repetitions, due immediately.
func NewSchedulingState(now time.Time) SchedulingState {
	due := now
	return SchedulingState{
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: 0,
		Repetitions:  0,
		NextReviewAt: &due,
	}
}

// Card is a front/back study unit with its own spaced-repetition schedule.
// SourceID is nil for manually created cards.
type Card struct {
	ID       uuid.UUID  `json:"id"`
	SourceID *uuid.UUID `json:"source_id,omitempty"`
	Front    string     `json:"front"`
	Back     string     `json:"back"`
	Hint     string     `json:"hint,omitempty"`
	Status   CardStatus `json:"status"`

	SchedulingState

	Tags      []Tag     `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDraftCard creates a Card in draft status linked to a source. Draft cards
// carry zeroed scheduling state; activation resets it properly.
func NewDraftCard(sourceID uuid.UUID, front, back, hint string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:       uuid.New(),
		SourceID: &sourceID,
		Front:    front,
		Back:     back,
		Hint:     hint,
		Status:   CardStatusDraft,
		SchedulingState: SchedulingState{
			EaseFactor: DefaultEaseFactor,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// NewCard creates a manually authored Card that is active and due
// immediately. Manual cards have no owning source.
func NewCard(front, back, hint string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:              uuid.New(),
		Front:           front,
		Back:            back,
		Hint:            hint,
		Status:          CardStatusActive,
		SchedulingState: NewSchedulingState(now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCardID
	}

	if c.Front == "" {
		return ErrEmptyCardFront
	}

	if c.Back == "" {
		return ErrEmptyCardBack
	}

	if !isValidCardStatus(c.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidCardStatus, c.Status)
	}

	if c.EaseFactor < 0 || c.IntervalDays < 0 || c.Repetitions < 0 {
		return fmt.Errorf("%w: scheduling state out of range", ErrValidation)
	}

	return nil
}

// TransitionTo moves the card to target if the transition table permits it.
// Returns ErrInvalidTransition otherwise, leaving the card unchanged.
func (c *Card) TransitionTo(target CardStatus) error {
	if !isValidCardStatus(target) {
		return fmt.Errorf("%w: %q", ErrInvalidCardStatus, target)
	}

	if !c.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: card %s -> %s", ErrInvalidTransition, c.Status, target)
	}

	c.Status = target
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate moves a draft card into the review rotation, resetting the
// scheduling state to the defaults so the card is due immediately.
func (c *Card) Activate(now time.Time) error {
	if err := c.TransitionTo(CardStatusActive); err != nil {
		return err
	}

	c.SchedulingState = NewSchedulingState(now)
	c.UpdatedAt = now
	return nil
}

// UpdateContent changes the card's front, back and hint. Content edits are
// permitted in any status and never touch the scheduling state.
func (c *Card) UpdateContent(front, back, hint string) error {
	if front == "" {
		return ErrEmptyCardFront
	}
	if back == "" {
		return ErrEmptyCardBack
	}

	c.Front = front
	c.Back = back
	c.Hint = hint
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Reviewable reports whether a review rating may be processed for the card.
// Draft and suspended cards are excluded; mastered cards are still processed
// because mastery is advisory, not a hard lock.
func (c *Card) Reviewable() bool {
	return c.Status == CardStatusActive || c.Status == CardStatusMastered
}

func isValidCardStatus(status CardStatus) bool {
	switch status {
	case CardStatusDraft, CardStatusActive, CardStatusSuspended, CardStatusMastered:
		return true
	default:
		return false
	}
}
