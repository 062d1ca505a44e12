package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithLogger(context.Background(), custom)

	if got := FromContext(ctx); got != custom {
		t.Error("Expected the logger attached to the context")
	}

	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("Expected the process default logger for a bare context")
	}
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if got := FromContextOrDefault(context.Background(), fallback); got != fallback {
		t.Error("Expected the fallback logger for a bare context")
	}

	custom := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithLogger(context.Background(), custom)
	if got := FromContextOrDefault(ctx, fallback); got != custom {
		t.Error("Expected the context logger to win over the fallback")
	}
}

func TestWithLoggerPanicsOnNil(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for nil logger")
		}
	}()
	WithLogger(context.Background(), nil)
}
