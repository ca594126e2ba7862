package core

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerPrefersContextLogger(t *testing.T) {
	var ctxBuf, fallbackBuf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&ctxBuf, nil)).With("cycle_id", "c-1")
	fallback := slog.New(slog.NewTextHandler(&fallbackBuf, nil))

	ctx := WithLogger(context.Background(), ctxLogger)
	Logger(ctx, fallback).Info("hello")

	if !strings.Contains(ctxBuf.String(), "cycle_id=c-1") {
		t.Fatalf("expected context logger output, got %q", ctxBuf.String())
	}
	if fallbackBuf.Len() != 0 {
		t.Fatalf("fallback logger should not be used, got %q", fallbackBuf.String())
	}
}

func TestLoggerFallbacks(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger for bare context")
	}
	fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if got := Logger(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback logger")
	}
	if got := Logger(context.Background(), nil); got != slog.Default() {
		t.Fatalf("expected slog.Default()")
	}
	if ctx := WithLogger(context.Background(), nil); LoggerFromContext(ctx) != nil {
		t.Fatalf("nil logger must not be attached")
	}
}
