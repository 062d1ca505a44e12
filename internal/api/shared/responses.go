package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path))
	}
}

// RespondWithError writes a JSON error response carrying the request's trace
// ID so clients can quote it back.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.Int("status", status),
			slog.String("path", r.URL.Path),
			slog.String("trace_id", traceID))
	} else {
		slog.Debug("sending error response",
			slog.Int("status", status),
			slog.String("message", message),
			slog.String("trace_id", traceID))
	}

	RespondWithJSON(w, r, status, ErrorResponse{Error: message, TraceID: traceID})
}
