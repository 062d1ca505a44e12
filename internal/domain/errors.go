package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a status change does not follow
	// the entity's transition table. No state is mutated when this error is
	// returned; the operation is safe to retry with a valid target.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidRating is returned when a review rating is outside the
	// again/hard/good/easy enumeration. It is rejected before any state change.
	ErrInvalidRating = errors.New("invalid review rating")

	// ErrInvalidSourceKind is returned when a source kind is not part of the
	// known enumeration.
	ErrInvalidSourceKind = errors.New("invalid source kind")

	// ErrInvalidSourceStatus is returned when a source status is not valid.
	ErrInvalidSourceStatus = errors.New("invalid source status")

	// ErrInvalidCardStatus is returned when a card status is not valid.
	ErrInvalidCardStatus = errors.New("invalid card status")
)
