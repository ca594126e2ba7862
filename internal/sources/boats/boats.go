package boats

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bakkerme/boatwatch/internal/core"
)

// Card containers of a search result page. The legacy layout is only read
// when the page has no current-layout cards.
const (
	CardSelector       = "div.listing-card"
	LegacyCardSelector = "article.vessel-card"
)

// Card holds the raw text of one ad as it appears on the page.
type Card struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Location    string `json:"location"`
	Year        string `json:"year"`
	Length      string `json:"length"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Link        string `json:"link"`
}

// ScrapeOptions controls scraper behavior.
type ScrapeOptions struct {
	UserAgent string
}

// Scraper fetches a search result page and extracts its cards.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string, options ScrapeOptions) ([]Card, error)
}

// SearchParams describes the fixed part of a search URL.
type SearchParams struct {
	BaseURL     string
	BoatType    string
	ListingType string
}

// SearchURL builds the search page URL for a query: a price ceiling in the
// home country for domestic queries, a price floor everywhere for global ones.
func SearchURL(params SearchParams, query core.QuerySpec) (string, error) {
	base, err := url.Parse(strings.TrimRight(params.BaseURL, "/") + "/boats-for-sale")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	values := url.Values{}
	values.Set("type", params.BoatType)
	values.Set("listing_type", params.ListingType)
	price := strconv.Itoa(query.PriceThreshold)
	switch query.Region {
	case core.RegionDomestic:
		values.Set("price_max", price)
		if query.HomeCountry != "" {
			values.Set("location", query.HomeCountry)
		}
	case core.RegionGlobal:
		values.Set("price_min", price)
	default:
		return "", fmt.Errorf("unsupported region %q", query.Region)
	}
	base.RawQuery = values.Encode()
	return base.String(), nil
}

// ParseCard extracts the raw fields of one card. Link and image are returned
// as they appear in the markup.
func ParseCard(sel *goquery.Selection) Card {
	text := func(selector string) string {
		return strings.TrimSpace(sel.Find(selector).First().Text())
	}
	attr := func(selector, name string) string {
		value, _ := sel.Find(selector).First().Attr(name)
		return strings.TrimSpace(value)
	}
	return Card{
		Title:       text("h2.listing-title"),
		Price:       text("span.listing-price"),
		Location:    text("span.listing-location"),
		Year:        text("span.year"),
		Length:      text("span.length"),
		Description: text("p.listing-description"),
		ImageURL:    attr("img.listing-image", "src"),
		Link:        attr("a.listing-link", "href"),
	}
}

// ParseCards extracts every card under root, in document order.
func ParseCards(root *goquery.Selection) []Card {
	selection := root.Find(CardSelector)
	if selection.Length() == 0 {
		selection = root.Find(LegacyCardSelector)
	}
	cards := make([]Card, 0, selection.Length())
	selection.Each(func(_ int, sel *goquery.Selection) {
		cards = append(cards, ParseCard(sel))
	})
	return cards
}
