package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampRoundTripsRFC3339(t *testing.T) {
	want := time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC)
	data, err := json.Marshal(NewTimestamp(want))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"2025-03-14T09:26:53.589Z"` {
		t.Fatalf("unexpected encoding %s", data)
	}
	var got Timestamp
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got.Time, want)
	}
}

func TestTimestampAcceptsNaiveISO(t *testing.T) {
	var got Timestamp
	if err := json.Unmarshal([]byte(`"2024-11-02T18:04:05.123456"`), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	want := time.Date(2024, 11, 2, 18, 4, 5, 123456000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got.Time, want)
	}
}

func TestTimestampNull(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "null" {
		t.Fatalf("expected null, got %s", data)
	}
	got := NewTimestamp(time.Now())
	if err := json.Unmarshal([]byte("null"), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !got.IsZero() || got.Ptr() != nil {
		t.Fatalf("expected zero timestamp after null")
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var got Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &got); err == nil {
		t.Fatalf("expected error for invalid timestamp")
	}
	if err := json.Unmarshal([]byte(`42`), &got); err == nil {
		t.Fatalf("expected error for non-string timestamp")
	}
}
