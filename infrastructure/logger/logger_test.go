package logger_test

import (
	"context"
	"testing"

	"github.com/performartech/hinis-website/infrastructure/logger"
)

func TestWithContext_RoundTrip(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()
	ctx := logger.WithContext(context.Background(), nop)

	if got := logger.FromContext(ctx); got != nop {
		t.Errorf("FromContext returned %v, want the stored logger", got)
	}
}

func TestFromContext_FallbackIsUsable(t *testing.T) {
	t.Parallel()

	fallback := logger.FromContext(context.Background())
	if fallback == nil {
		t.Fatal("FromContext on empty context returned nil")
	}
	fallback.Warn("fallback in use", logger.String("key", "value"))
}

func TestNew_ConsoleFormat(t *testing.T) {
	t.Parallel()

	log, err := logger.New(logger.Config{Level: "debug", Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.With(logger.String("service", "lead-gateway")).Debug("console logger built")
}
