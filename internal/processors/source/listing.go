package source

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/bakkerme/boatwatch/internal/core"
)

// maxDescriptionRunes bounds the stored description.
const maxDescriptionRunes = 200

// rawListing is the source-independent shape a processor fills before the
// record is normalized.
type rawListing struct {
	title       string
	price       string
	location    string
	year        string
	length      string
	description string
	imageURL    string
	link        string
}

// ParsePrice extracts the numeric price from a display string such as
// "€ 1.250.000" or "$450,000". Thousands separators are removed and the
// first run of digits is parsed. Anything unparseable yields 0.
func ParsePrice(display string) int {
	cleaned := strings.NewReplacer(".", "", ",", "").Replace(display)
	start := strings.IndexFunc(cleaned, unicode.IsDigit)
	if start < 0 {
		return 0
	}
	end := start
	for end < len(cleaned) && cleaned[end] >= '0' && cleaned[end] <= '9' {
		end++
	}
	value, err := strconv.Atoi(cleaned[start:end])
	if err != nil {
		return 0
	}
	return value
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// toListing normalizes a raw record. ok is false when the ad has no title or
// no link and must be skipped.
func toListing(raw rawListing, query core.QuerySpec, sourceName string, now time.Time) (core.Listing, bool) {
	title := strings.TrimSpace(raw.title)
	link := strings.TrimSpace(raw.link)
	if title == "" || link == "" {
		return core.Listing{}, false
	}
	price := orDefault(strings.TrimSpace(raw.price), core.NotAvailable)
	listing := core.Listing{
		ID:           core.DeriveID(link),
		Title:        title,
		PriceDisplay: price,
		PriceValue:   ParsePrice(price),
		Location:     orDefault(strings.TrimSpace(raw.location), core.NoLocation),
		Year:         orDefault(strings.TrimSpace(raw.year), core.NotAvailable),
		Length:       orDefault(strings.TrimSpace(raw.length), core.NotAvailable),
		Description:  truncateRunes(strings.TrimSpace(raw.description), maxDescriptionRunes),
		ImageURL:     strings.TrimSpace(raw.imageURL),
		Link:         link,
		FoundAt:      core.NewTimestamp(now),
		SellerType:   core.SellerTypePrivate,
		Region:       query.Region,
		Source:       sourceName,
	}
	return listing, true
}
