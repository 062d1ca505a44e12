package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. Entity-specific variants below wrap it so callers can match
	// either way with errors.Is.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails to
	// commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors.

	// ErrSourceNotFound indicates that the requested source does not exist.
	ErrSourceNotFound = fmt.Errorf("%w: source", ErrNotFound)

	// ErrCardNotFound indicates that the requested card does not exist.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrTagNotFound indicates that the requested tag does not exist.
	ErrTagNotFound = fmt.Errorf("%w: tag", ErrNotFound)

	// Entity-specific "duplicate" errors.

	// ErrDuplicateExternalKey indicates that a source with the same external
	// key and origin kind already exists. In the default import mode this is
	// swallowed by the service layer as a no-op; strict mode surfaces it.
	ErrDuplicateExternalKey = fmt.Errorf("%w: external key", ErrDuplicate)

	// ErrDuplicateTagName indicates that a tag with the same
	// (case-insensitive) name already exists.
	ErrDuplicateTagName = fmt.Errorf("%w: tag name", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with
// additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "source", "card")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
