package config

import (
	"testing"
	"time"
)

func TestLoadEnvReadsTelegramAndDurations(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "591743494")
	t.Setenv("BOATS_HTTP_TIMEOUT", "1d")
	t.Setenv("LOG_FORMAT", "TINT")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "a=1, b = 2 ,broken")

	env := LoadEnv()
	if env.Telegram.Token != "123:abc" || env.Telegram.ChatID != 591743494 {
		t.Fatalf("unexpected telegram env %+v", env.Telegram)
	}
	if env.Boats.HTTPTimeout != 24*time.Hour {
		t.Fatalf("expected 24h timeout, got %v", env.Boats.HTTPTimeout)
	}
	if env.LogFormat != "tint" {
		t.Fatalf("expected lower-cased log format, got %q", env.LogFormat)
	}
	if len(env.OTel.Headers) != 2 || env.OTel.Headers["b"] != "2" {
		t.Fatalf("unexpected headers %v", env.OTel.Headers)
	}
}

func TestLoadEnvFallsBackOnGarbage(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	t.Setenv("FEED_HTTP_TIMEOUT", "soon")
	env := LoadEnv()
	if env.Telegram.ChatID != 0 {
		t.Fatalf("expected fallback chat id, got %d", env.Telegram.ChatID)
	}
	if env.Feed.HTTPTimeout != 10*time.Second {
		t.Fatalf("expected fallback timeout, got %v", env.Feed.HTTPTimeout)
	}
}
