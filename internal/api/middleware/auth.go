package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/lociapp/loci-api/internal/api/shared"
)

// APIKeyHeader carries the client's key on every authenticated request.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth authenticates requests against a single static key. The service
// is single-tenant; there are no users and no sessions.
type APIKeyAuth struct {
	key []byte
}

// NewAPIKeyAuth creates the middleware. Panics on an empty key because the
// server must never start unauthenticated.
func NewAPIKeyAuth(key string) *APIKeyAuth {
	if key == "" {
		panic("API key cannot be empty")
	}
	return &APIKeyAuth{key: []byte(key)}
}

// Authenticate rejects requests whose X-API-Key header does not match. The
// comparison is constant time so response timing leaks nothing about the key.
func (m *APIKeyAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get(APIKeyHeader)
		if provided == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "API key required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), m.key) != 1 {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
