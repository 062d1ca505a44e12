package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"
)

// ContextKey is the key type for request-scoped values.
type ContextKey string

const (
	// TraceIDKey is the key for the trace ID in the request context.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of random bytes in a trace ID.
	TraceIDLength = 16 // 32 hex characters
)

// SetTraceID adds a fresh trace ID to the context for correlating logs and
// error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context, or "" if none is set.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	n, err := rand.Read(b)
	if err != nil || n != TraceIDLength {
		slog.Error("failed to generate random trace ID",
			slog.Any("error", err),
			slog.Int("bytes_read", n))
		return generateFallbackTraceID()
	}

	return hex.EncodeToString(b)
}

// generateFallbackTraceID builds a time-based ID when crypto/rand fails.
// Less unique than a random ID but never a static value.
func generateFallbackTraceID() string {
	fallback := make([]byte, TraceIDLength)
	binary.BigEndian.PutUint64(fallback[:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(fallback[8:12], uint32(time.Now().Nanosecond()))
	binary.BigEndian.PutUint32(fallback[12:16], uint32(time.Now().Unix()))
	return hex.EncodeToString(fallback)
}
