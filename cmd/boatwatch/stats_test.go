package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bakkerme/boatwatch/internal/core"
)

func TestPrintStatsTable(t *testing.T) {
	checked := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	if err := printStats(&buf, core.StoreStats{TotalKnown: 42, LastCheck: &checked, Location: "yachts_database.json"}, "table"); err != nil {
		t.Fatalf("printStats: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"yachts_database.json", "42", "2025-06-02T10:00:00Z"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintStatsNeverChecked(t *testing.T) {
	var buf bytes.Buffer
	if err := printStats(&buf, core.StoreStats{Location: "boatwatch.db"}, ""); err != nil {
		t.Fatalf("printStats: %v", err)
	}
	if !strings.Contains(buf.String(), "never") {
		t.Fatalf("expected 'never' for a fresh store:\n%s", buf.String())
	}
}

func TestPrintStatsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printStats(&buf, core.StoreStats{TotalKnown: 3, Location: "x.json"}, "json"); err != nil {
		t.Fatalf("printStats: %v", err)
	}
	var decoded core.StoreStats
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if decoded.TotalKnown != 3 || decoded.Location != "x.json" {
		t.Fatalf("unexpected stats %+v", decoded)
	}
	if err := printStats(&buf, core.StoreStats{}, "yaml"); err == nil {
		t.Fatalf("expected unsupported format to fail")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug").String() != "DEBUG" || parseLevel("warning").String() != "WARN" || parseLevel("bogus").String() != "INFO" {
		t.Fatalf("unexpected level mapping")
	}
}
