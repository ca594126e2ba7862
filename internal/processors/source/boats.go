package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bakkerme/boatwatch/internal/config"
	"github.com/bakkerme/boatwatch/internal/core"
	"github.com/bakkerme/boatwatch/internal/sources/boats"
)

// BoatsProcessor searches boats.com and turns result cards into listings.
type BoatsProcessor struct {
	name    string
	config  config.BoatsSource
	scraper boats.Scraper
	logger  *slog.Logger
	now     func() time.Time
}

func NewBoatsProcessor(cfg *config.BoatsSource, scraper boats.Scraper, logger *slog.Logger) (*BoatsProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("boats config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BoatsProcessor{
		name:    "boats",
		config:  *cfg,
		scraper: scraper,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (p *BoatsProcessor) Name() string {
	return p.name
}

func (p *BoatsProcessor) Validate() error {
	if p.config.BaseURL == "" {
		return fmt.Errorf("boats base_url is required")
	}
	if p.scraper == nil {
		return fmt.Errorf("boats scraper is required")
	}
	return nil
}

func (p *BoatsProcessor) Search(ctx context.Context, query core.QuerySpec) ([]core.Listing, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	pageURL, err := boats.SearchURL(boats.SearchParams{
		BaseURL:     p.config.BaseURL,
		BoatType:    p.config.BoatType,
		ListingType: p.config.ListingType,
	}, query)
	if err != nil {
		return nil, err
	}

	cards, err := p.scraper.Scrape(ctx, pageURL, boats.ScrapeOptions{UserAgent: p.config.UserAgent})
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", query.Region, err)
	}

	now := p.now()
	listings := make([]core.Listing, 0, len(cards))
	skipped := 0
	for _, card := range cards {
		listing, ok := toListing(rawListing{
			title:       card.Title,
			price:       card.Price,
			location:    card.Location,
			year:        card.Year,
			length:      card.Length,
			description: card.Description,
			imageURL:    card.ImageURL,
			link:        card.Link,
		}, query, p.name, now)
		if !ok {
			skipped++
			continue
		}
		listings = append(listings, listing)
	}

	core.Logger(ctx, p.logger).Debug("boats search complete",
		slog.String("query", query.String()),
		slog.Int("cards", len(cards)),
		slog.Int("listings", len(listings)),
		slog.Int("skipped", skipped),
	)
	return listings, nil
}
