package impl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/bakkerme/boatwatch/internal/retry"
	"github.com/bakkerme/boatwatch/internal/sources/feed"
)

type Fetcher struct {
	client    *http.Client
	userAgent string
	retry     retry.Config
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		retry:     retry.DefaultFetch,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string, options feed.FetchOptions) ([]feed.Item, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = f.userAgent
	if options.UserAgent != "" {
		parser.UserAgent = options.UserAgent
	}

	var parsed *gofeed.Feed
	err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
		result, err := parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			if permanentFetchError(err) {
				return retry.Permanent(err)
			}
			return err
		}
		parsed = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	limit := options.Limit
	if limit <= 0 {
		limit = len(parsed.Items)
	}

	items := make([]feed.Item, 0, limit)
	for _, entry := range parsed.Items {
		if len(items) >= limit {
			break
		}
		item := feed.Item{
			ID:          entry.GUID,
			Title:       strings.TrimSpace(entry.Title),
			Link:        strings.TrimSpace(entry.Link),
			Description: entry.Description,
			Content:     entry.Content,
			ImageURL:    itemImage(entry),
			Custom:      entry.Custom,
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = *entry.UpdatedParsed
		} else {
			item.PublishedAt = time.Now().UTC()
		}
		items = append(items, item)
	}
	return items, nil
}

func itemImage(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enclosure := range entry.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	if src := firstImageFromHTML(entry.Content, entry.Link); src != "" {
		return src
	}
	return firstImageFromHTML(entry.Description, entry.Link)
}

// permanentFetchError reports client errors other than 429, which a retry
// cannot fix.
func permanentFetchError(err error) bool {
	var httpErr gofeed.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests
}
