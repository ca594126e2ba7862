package feed

import (
	"context"
	"time"
)

// FetchOptions controls feed fetch behavior.
type FetchOptions struct {
	Limit     int
	UserAgent string
}

// Item represents a single RSS or Atom entry describing a listing.
type Item struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Link        string            `json:"link"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	ImageURL    string            `json:"image_url"`
	Custom      map[string]string `json:"custom,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
}

// Fetcher fetches and parses RSS/Atom feeds.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, options FetchOptions) ([]Item, error)
}
