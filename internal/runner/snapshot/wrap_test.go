package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
)

type countingSource struct {
	calls    int
	listings []core.Listing
}

func (s *countingSource) Name() string { return "boats" }

func (s *countingSource) Search(ctx context.Context, query core.QuerySpec) ([]core.Listing, error) {
	s.calls++
	out := make([]core.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		l.Region = query.Region
		out = append(out, l)
	}
	return out, nil
}

func TestWrapSourceRecordsThenReplays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "boats.json")
	inner := &countingSource{listings: []core.Listing{{ID: "a1", Title: "Azimut 68", Link: "https://x/a1"}}}

	recorder := WrapSource(inner, &config.SnapshotConfig{Snapshot: true, Path: path})
	for _, region := range []core.Region{core.RegionDomestic, core.RegionGlobal} {
		if _, err := recorder.Search(context.Background(), core.QuerySpec{Region: region}); err != nil {
			t.Fatalf("record %s: %v", region, err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 source calls while recording, got %d", inner.calls)
	}

	replayer := WrapSource(inner, &config.SnapshotConfig{Restore: true, Path: path})
	listings, err := replayer.Search(context.Background(), core.QuerySpec{Region: core.RegionGlobal})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected replay to skip the source, got %d calls", inner.calls)
	}
	if len(listings) != 1 || listings[0].ID != "a1" || listings[0].Region != core.RegionGlobal {
		t.Fatalf("unexpected replayed listings %+v", listings)
	}
}

func TestWrapSourceWithoutSnapshotIsIdentity(t *testing.T) {
	inner := &countingSource{}
	if got := WrapSource(inner, nil); got != core.ListingSource(inner) {
		t.Fatalf("expected the source to be returned unchanged")
	}
	if got := WrapSource(inner, &config.SnapshotConfig{}); got != core.ListingSource(inner) {
		t.Fatalf("expected the source to be returned unchanged")
	}
}

func TestRestoreMissingSnapshotFails(t *testing.T) {
	replayer := WrapSource(&countingSource{}, &config.SnapshotConfig{Restore: true, Path: filepath.Join(t.TempDir(), "missing.json")})
	_, err := replayer.Search(context.Background(), core.QuerySpec{Region: core.RegionDomestic})
	if err == nil {
		t.Fatalf("expected error for missing snapshot")
	}
	if _, statErr := Load(filepath.Join(t.TempDir(), "missing.json"), core.RegionDomestic); statErr == nil || errors.Unwrap(statErr) == nil {
		t.Fatalf("expected wrapped read error, got %v", statErr)
	}
}
