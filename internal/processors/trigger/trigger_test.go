package trigger

import (
	"context"
	"testing"
	"time"
)

func TestIntervalProcessorFiresImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger := NewIntervalProcessor(time.Hour)
	events, err := trigger.Start(ctx)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	select {
	case event := <-events:
		if event.Name != "interval" || event.Timestamp.IsZero() {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected an immediate event")
	}
}

func TestIntervalProcessorCollapsesPendingEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger := NewIntervalProcessor(time.Hour)
	events, err := trigger.Start(ctx)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	trigger.fire()
	trigger.fire()
	if n := len(events); n != 1 {
		t.Fatalf("expected exactly one pending event, got %d", n)
	}
}

func TestIntervalProcessorClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	trigger := NewIntervalProcessor(time.Hour)
	events, err := trigger.Start(ctx)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-events
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected channel to close after cancel")
	}
	if err := trigger.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	if err := NewIntervalProcessor(0).Validate(); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if err := NewCronProcessor("not a schedule", "").Validate(); err == nil {
		t.Fatalf("expected error for bad schedule")
	}
	if err := NewCronProcessor("0 */12 * * *", "Mars/Olympus").Validate(); err == nil {
		t.Fatalf("expected error for bad timezone")
	}
	if err := NewCronProcessor("0 */12 * * *", "Europe/Rome").Validate(); err != nil {
		t.Fatalf("expected valid schedule, got %v", err)
	}
}
