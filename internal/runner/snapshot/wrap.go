package snapshot

import (
	"context"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
)

// SourceWrapper records a source's results to disk, or replays them without
// calling the source.
type SourceWrapper struct {
	core.ListingSource
	snapshot config.SnapshotConfig
}

func (w *SourceWrapper) SnapshotConfig() config.SnapshotConfig {
	return w.snapshot
}

func (w *SourceWrapper) Search(ctx context.Context, query core.QuerySpec) ([]core.Listing, error) {
	if w.snapshot.Restore {
		return Load(w.snapshot.Path, query.Region)
	}
	listings, err := w.ListingSource.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if w.snapshot.Snapshot {
		if err := Save(w.snapshot.Path, w.Name(), query.Region, listings); err != nil {
			core.Logger(ctx, nil).Warn("failed to save source snapshot", "source", w.Name(), "path", w.snapshot.Path, "error", err)
		}
	}
	return listings, nil
}

// WrapSource returns source unchanged unless cfg enables snapshot or restore.
func WrapSource(source core.ListingSource, cfg *config.SnapshotConfig) core.ListingSource {
	if source == nil {
		return nil
	}
	if cfg == nil || (!cfg.Snapshot && !cfg.Restore) {
		return source
	}
	return &SourceWrapper{ListingSource: source, snapshot: *cfg}
}
