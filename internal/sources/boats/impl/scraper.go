package impl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/bakkerme/boatwatch/internal/retry"
	"github.com/bakkerme/boatwatch/internal/sources/boats"
)

type Scraper struct {
	timeout   time.Duration
	userAgent string
	retry     retry.Config
}

func NewScraper(timeout time.Duration, userAgent string) *Scraper {
	return &Scraper{timeout: timeout, userAgent: userAgent, retry: retry.DefaultFetch}
}

func (s *Scraper) Scrape(ctx context.Context, pageURL string, options boats.ScrapeOptions) ([]boats.Card, error) {
	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = s.userAgent
	}

	var cards []boats.Card
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		fetched, err := s.scrapeOnce(ctx, pageURL, userAgent)
		if err != nil {
			return err
		}
		cards = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", pageURL, err)
	}
	return cards, nil
}

func (s *Scraper) scrapeOnce(ctx context.Context, pageURL, userAgent string) ([]boats.Card, error) {
	collector := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	if userAgent != "" {
		collector.UserAgent = userAgent
	}
	if s.timeout > 0 {
		collector.SetRequestTimeout(s.timeout)
	}

	cards := []boats.Card{}
	collector.OnHTML("body", func(e *colly.HTMLElement) {
		for _, card := range boats.ParseCards(e.DOM) {
			if card.Link != "" {
				card.Link = e.Request.AbsoluteURL(card.Link)
			}
			if card.ImageURL != "" {
				card.ImageURL = e.Request.AbsoluteURL(card.ImageURL)
			}
			cards = append(cards, card)
		}
	})

	status := 0
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := collector.Visit(pageURL); err != nil {
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return nil, retry.Permanent(fmt.Errorf("status %d: %w", status, err))
		}
		return nil, err
	}
	collector.Wait()
	return cards, nil
}
