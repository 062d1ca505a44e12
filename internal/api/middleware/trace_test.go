package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lociapp/loci-api/internal/api/shared"
	"github.com/lociapp/loci-api/internal/platform/logger"
)

func TestTraceAttachesTraceID(t *testing.T) {
	var traceID string
	handler := Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cards", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, traceID, "downstream handlers need a trace ID to correlate on")
}

func TestTraceAttachesRequestScopedLogger(t *testing.T) {
	var contextLogger *slog.Logger
	handler := Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contextLogger = logger.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cards", nil))

	require.NotNil(t, contextLogger)
	// The context must carry a dedicated logger, not fall through to the
	// process default, so store-layer log lines pick up the trace ID.
	assert.NotSame(t, slog.Default(), contextLogger)

	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	got := logger.FromContextOrDefault(httptest.NewRequest(http.MethodGet, "/", nil).Context(), fallback)
	assert.Same(t, fallback, got, "without the middleware the supplied fallback wins")
}
