package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies where a captured fact came from.
type SourceKind string

// Known source kinds. The enumeration is closed: producers must use one of
// these values, and new integrations get their own kind.
const (
	SourceKindRaindrop         SourceKind = "raindrop"
	SourceKindReadwise         SourceKind = "readwise"
	SourceKindBrowserExtension SourceKind = "browser_extension"
	SourceKindManual           SourceKind = "manual"
	SourceKindAlfred           SourceKind = "alfred"
	SourceKindIOSShortcut      SourceKind = "ios_shortcut"
)

// SourceStatus represents a source's position in the capture-to-approval
// lifecycle.
type SourceStatus string

// Possible source status values.
const (
	// SourceStatusPendingReview means the source was captured but cards have
	// not been generated yet.
	SourceStatusPendingReview SourceStatus = "pending_review"

	// SourceStatusCardsGenerated means draft cards exist and await approval.
	SourceStatusCardsGenerated SourceStatus = "cards_generated"

	// SourceStatusApproved means the user approved the source and its cards
	// entered the review rotation.
	SourceStatusApproved SourceStatus = "approved"

	// SourceStatusArchived is terminal. Archived sources are kept for audit
	// and export but excluded from all generation and approval flows.
	SourceStatusArchived SourceStatus = "archived"
)

// sourceTransitions is the central transition table for sources. An edge that
// is not listed here is an invalid transition, no exceptions scattered in
// handlers or services.
var sourceTransitions = map[SourceStatus][]SourceStatus{
	SourceStatusPendingReview:  {SourceStatusCardsGenerated, SourceStatusArchived},
	SourceStatusCardsGenerated: {SourceStatusApproved, SourceStatusArchived},
	SourceStatusApproved:       {SourceStatusArchived},
	SourceStatusArchived:       {},
}

// CanTransitionTo reports whether the status may move to target.
func (s SourceStatus) CanTransitionTo(target SourceStatus) bool {
	for _, allowed := range sourceTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Source-specific validation errors.
var (
	ErrEmptySourceID   = errors.New("source ID cannot be empty")
	ErrEmptySourceText = errors.New("source text cannot be empty")
)

// Source is a captured fact awaiting conversion into study cards.
type Source struct {
	ID             uuid.UUID    `json:"id"`
	Text           string       `json:"text"`
	Kind           SourceKind   `json:"kind"`
	URL            string       `json:"url,omitempty"`
	Title          string       `json:"title,omitempty"`
	ExternalKey    string       `json:"external_key,omitempty"`
	HighlightColor string       `json:"highlight_color,omitempty"`
	Status         SourceStatus `json:"status"`
	Tags           []Tag        `json:"tags,omitempty"`
	CardCount      int          `json:"card_count"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewSource creates a Source in pending_review with a fresh UUID.
// Returns an error if validation fails.
func NewSource(text string, kind SourceKind) (*Source, error) {
	now := time.Now().UTC()
	source := &Source{
		ID:        uuid.New(),
		Text:      text,
		Kind:      kind,
		Status:    SourceStatusPendingReview,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

// Validate checks if the Source has valid data.
func (s *Source) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySourceID
	}

	if s.Text == "" {
		return ErrEmptySourceText
	}

	if !isValidSourceKind(s.Kind) {
		return fmt.Errorf("%w: %q", ErrInvalidSourceKind, s.Kind)
	}

	if !isValidSourceStatus(s.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidSourceStatus, s.Status)
	}

	return nil
}

// TransitionTo moves the source to target if the transition table permits it,
// updating the UpdatedAt timestamp. Returns ErrInvalidTransition (wrapped with
// the offending edge) otherwise, leaving the source unchanged.
func (s *Source) TransitionTo(target SourceStatus) error {
	if !isValidSourceStatus(target) {
		return fmt.Errorf("%w: %q", ErrInvalidSourceStatus, target)
	}

	if !s.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: source %s -> %s", ErrInvalidTransition, s.Status, target)
	}

	s.Status = target
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func isValidSourceKind(kind SourceKind) bool {
	switch kind {
	case SourceKindRaindrop, SourceKindReadwise, SourceKindBrowserExtension,
		SourceKindManual, SourceKindAlfred, SourceKindIOSShortcut:
		return true
	default:
		return false
	}
}

func isValidSourceStatus(status SourceStatus) bool {
	switch status {
	case SourceStatusPendingReview, SourceStatusCardsGenerated,
		SourceStatusApproved, SourceStatusArchived:
		return true
	default:
		return false
	}
}
