// Package middleware holds the HTTP middleware chain: request tracing and
// API key authentication.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/lociapp/loci-api/internal/api/shared"
	"github.com/lociapp/loci-api/internal/platform/logger"
)

// Trace adds a trace ID to the request context and attaches a request-scoped
// logger carrying it. Apply it first so every later handler and log line,
// down to the store layer, correlates on the trace ID.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		log := slog.Default().With(slog.String("trace_id", shared.GetTraceID(ctx)))
		ctx = logger.WithLogger(ctx, log)

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
