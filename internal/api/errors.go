package api

import (
	"errors"
	"net/http"

	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/generation"
	"github.com/lociapp/loci-api/internal/service"
	"github.com/lociapp/loci-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Anything
// unrecognized is a 500 so internals never leak through the status line.
func MapErrorToStatusCode(err error) int {
	switch {
	// Validation and state-machine violations.
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidSourceKind),
		errors.Is(err, domain.ErrInvalidSourceStatus),
		errors.Is(err, domain.ErrInvalidCardStatus),
		errors.Is(err, domain.ErrEmptySourceText),
		errors.Is(err, domain.ErrEmptyCardFront),
		errors.Is(err, domain.ErrEmptyCardBack),
		errors.Is(err, domain.ErrEmptyTagName),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrCardNotDraft),
		errors.Is(err, service.ErrCardNotReviewable):
		return http.StatusBadRequest

	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case store.IsDuplicateError(err):
		return http.StatusConflict

	// Features switched off by configuration.
	case errors.Is(err, service.ErrGeneratorUnavailable),
		errors.Is(err, service.ErrSyncUnavailable),
		errors.Is(err, service.ErrExportUnavailable):
		return http.StatusServiceUnavailable

	// Drafting collaborator failures.
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrTransientFailure):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Expected
// errors pass their own text through; anything else gets a generic message
// so internal details stay in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case store.IsNotFoundError(err):
		return "Resource not found"
	case store.IsDuplicateError(err):
		return "Resource already exists"
	case errors.Is(err, generation.ErrContentBlocked):
		return "Content was rejected by the card generator"
	case errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrTransientFailure):
		return "Card generation failed, try again later"
	case MapErrorToStatusCode(err) == http.StatusInternalServerError:
		return "An unexpected error occurred"
	default:
		return err.Error()
	}
}

// RespondWithMappedError is the one-stop error writer handlers use.
func RespondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
}
