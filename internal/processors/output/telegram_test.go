package output

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
	"github.com/bakkerme/boatwatch/internal/outputs/telegram/mock"
)

func newTelegram(t *testing.T, sender *mock.Sender) *TelegramProcessor {
	t.Helper()
	processor, err := NewTelegramProcessor(&config.TelegramOutput{ChatID: 42}, sender, nil)
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	return processor
}

func TestTelegramNotifyItemSendsPhoto(t *testing.T) {
	sender := &mock.Sender{}
	listing := sampleListing("1")
	listing.ImageURL = "https://img.example.com/1.jpg"

	if err := newTelegram(t, sender).NotifyItem(context.Background(), listing); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	if sent[0].PhotoURL != listing.ImageURL || sent[0].ChatID != 42 {
		t.Fatalf("unexpected message %+v", sent[0])
	}
}

func TestTelegramNotifyItemFallsBackToText(t *testing.T) {
	sender := &mock.Sender{PhotoErr: errors.New("wrong file identifier")}
	listing := sampleListing("1")
	listing.ImageURL = "https://img.example.com/broken.jpg"

	if err := newTelegram(t, sender).NotifyItem(context.Background(), listing); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	sent := sender.Sent()
	if len(sent) != 1 || sent[0].PhotoURL != "" {
		t.Fatalf("expected a text fallback, got %+v", sent)
	}
	if !strings.Contains(sent[0].Text, "Azimut") {
		t.Fatalf("expected listing text, got %q", sent[0].Text)
	}
}

func TestTelegramNotifyItemLongCaptionSendsText(t *testing.T) {
	sender := &mock.Sender{}
	listing := sampleListing("1")
	listing.ImageURL = "https://img.example.com/1.jpg"
	listing.Description = strings.Repeat("x", 1100)

	if err := newTelegram(t, sender).NotifyItem(context.Background(), listing); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if sent := sender.Sent(); len(sent) != 1 || sent[0].PhotoURL != "" {
		t.Fatalf("expected a text message, got %+v", sent)
	}
}

func TestTelegramNotifyErrorPropagatesSendFailure(t *testing.T) {
	boom := errors.New("network down")
	sender := &mock.Sender{Err: boom}
	if err := newTelegram(t, sender).NotifyError(context.Background(), "cycle failed"); !errors.Is(err, boom) {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestTelegramNotifyStatus(t *testing.T) {
	sender := &mock.Sender{}
	if err := newTelegram(t, sender).NotifyStatus(context.Background(), core.StoreStats{TotalKnown: 3, Location: "db.json"}); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if sent := sender.Sent(); len(sent) != 1 || !strings.Contains(sent[0].Text, "Known listings: 3") {
		t.Fatalf("unexpected status message %+v", sent)
	}
}

func TestTelegramRequiresChatID(t *testing.T) {
	processor, err := NewTelegramProcessor(&config.TelegramOutput{}, &mock.Sender{}, nil)
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	if err := processor.NotifyItem(context.Background(), sampleListing("1")); err == nil {
		t.Fatalf("expected validation error")
	}
}
