package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
	"github.com/bakkerme/boatwatch/internal/sources/feed"
)

// Custom feed elements read into listing fields.
const (
	feedFieldPrice    = "price"
	feedFieldLocation = "location"
	feedFieldYear     = "year"
	feedFieldLength   = "length"
)

// FeedProcessor reads listings from an RSS/Atom feed per region.
type FeedProcessor struct {
	name    string
	config  config.FeedSource
	fetcher feed.Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

func NewFeedProcessor(cfg *config.FeedSource, fetcher feed.Fetcher, logger *slog.Logger) (*FeedProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("feed config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "feed"
	}
	return &FeedProcessor{
		name:    name,
		config:  *cfg,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (p *FeedProcessor) Name() string {
	return p.name
}

func (p *FeedProcessor) Validate() error {
	if p.config.DomesticURL == "" && p.config.GlobalURL == "" {
		return fmt.Errorf("feed %s: at least one feed url is required", p.name)
	}
	if p.fetcher == nil {
		return fmt.Errorf("feed fetcher is required")
	}
	return nil
}

func (p *FeedProcessor) feedURL(region core.Region) string {
	switch region {
	case core.RegionDomestic:
		return p.config.DomesticURL
	case core.RegionGlobal:
		return p.config.GlobalURL
	}
	return ""
}

// Search fetches the feed configured for the query's region. A region
// without a feed yields no listings.
func (p *FeedProcessor) Search(ctx context.Context, query core.QuerySpec) ([]core.Listing, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := core.Logger(ctx, p.logger)
	feedURL := p.feedURL(query.Region)
	if feedURL == "" {
		logger.Debug("no feed configured for region", slog.String("source", p.name), slog.String("region", string(query.Region)))
		return nil, nil
	}

	items, err := p.fetcher.Fetch(ctx, feedURL, feed.FetchOptions{
		Limit:     p.config.Limit,
		UserAgent: p.config.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s feed: %w", query.Region, err)
	}

	now := p.now()
	listings := make([]core.Listing, 0, len(items))
	for _, item := range items {
		body := item.Description
		if body == "" {
			body = item.Content
		}
		description, err := feed.DescriptionText(body)
		if err != nil {
			logger.Warn("failed to convert feed description", slog.String("link", item.Link), slog.Any("error", err))
			description = ""
		}
		listing, ok := toListing(rawListing{
			title:       item.Title,
			price:       item.Custom[feedFieldPrice],
			location:    item.Custom[feedFieldLocation],
			year:        item.Custom[feedFieldYear],
			length:      item.Custom[feedFieldLength],
			description: description,
			imageURL:    item.ImageURL,
			link:        item.Link,
		}, query, p.name, now)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}
