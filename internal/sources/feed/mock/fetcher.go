package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/boatwatch/internal/sources/feed"
)

type Fetcher struct {
	mu          sync.Mutex
	ItemsByFeed map[string][]feed.Item
	ErrByFeed   map[string]error
	Requested   []string
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string, options feed.FetchOptions) ([]feed.Item, error) {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requested = append(f.Requested, feedURL)
	if f.ErrByFeed != nil {
		if err, ok := f.ErrByFeed[feedURL]; ok {
			return nil, err
		}
	}
	items := f.ItemsByFeed[feedURL]
	if options.Limit > 0 && len(items) > options.Limit {
		return items[:options.Limit], nil
	}
	return items, nil
}
