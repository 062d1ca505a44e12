package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected conditions. Callers match them with errors.Is
// and the API layer maps them to status codes.
var (
	// ErrGeneratorUnavailable indicates that card generation was requested
	// but no drafting collaborator is configured.
	ErrGeneratorUnavailable = errors.New("card generation is not configured")

	// ErrCardNotDraft indicates a delete attempt on a card that already left
	// draft status. Activated cards carry review history and must be
	// suspended instead.
	ErrCardNotDraft = errors.New("only draft cards can be deleted")

	// ErrCardNotReviewable indicates a review submission for a card whose
	// status excludes it from the rotation (draft or suspended).
	ErrCardNotReviewable = errors.New("card is not in a reviewable status")

	// ErrExportUnavailable indicates that export was requested but no vault
	// path is configured.
	ErrExportUnavailable = errors.New("export vault path is not configured")

	// ErrSyncUnavailable indicates that a highlight sync was requested but
	// no integration token is configured.
	ErrSyncUnavailable = errors.New("highlight sync is not configured")
)

// ServiceError wraps an unexpected failure with the service and operation
// that produced it.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
