package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/boatwatch/internal/sources/boats"
)

type Scraper struct {
	mu         sync.Mutex
	CardsByURL map[string][]boats.Card
	ErrByURL   map[string]error
	Requested  []string
}

func (s *Scraper) Scrape(ctx context.Context, pageURL string, options boats.ScrapeOptions) ([]boats.Card, error) {
	_ = ctx
	_ = options
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requested = append(s.Requested, pageURL)
	if s.ErrByURL != nil {
		if err, ok := s.ErrByURL[pageURL]; ok {
			return nil, err
		}
	}
	return s.CardsByURL[pageURL], nil
}
