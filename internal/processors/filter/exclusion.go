package filter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bakkerme/boatwatch/internal/core"
)

// CountryExclusion drops global listings whose location mentions an excluded
// country. Matching is a case-insensitive substring test, so "USA" also
// matches "Miami, FL, USA". Domestic queries and queries without excluded
// countries pass through untouched.
type CountryExclusion struct {
	logger *slog.Logger
}

func NewCountryExclusion(logger *slog.Logger) *CountryExclusion {
	if logger == nil {
		logger = slog.Default()
	}
	return &CountryExclusion{logger: logger}
}

func (f *CountryExclusion) Name() string {
	return "country_exclusion"
}

func (f *CountryExclusion) Filter(ctx context.Context, query core.QuerySpec, listings []core.Listing) ([]core.Listing, error) {
	if query.Region != core.RegionGlobal || len(query.ExcludedCountries) == 0 {
		return listings, nil
	}
	excluded := make([]string, 0, len(query.ExcludedCountries))
	for _, country := range query.ExcludedCountries {
		if country = strings.ToLower(strings.TrimSpace(country)); country != "" {
			excluded = append(excluded, country)
		}
	}

	logger := core.Logger(ctx, f.logger)
	kept := make([]core.Listing, 0, len(listings))
	for _, listing := range listings {
		if country, ok := matchCountry(listing.Location, excluded); ok {
			logger.Debug("listing excluded by country",
				slog.String("listing_id", listing.ID),
				slog.String("location", listing.Location),
				slog.String("country", country),
			)
			continue
		}
		kept = append(kept, listing)
	}
	return kept, nil
}

func matchCountry(location string, excluded []string) (string, bool) {
	lower := strings.ToLower(location)
	for _, country := range excluded {
		if strings.Contains(lower, country) {
			return country, true
		}
	}
	return "", false
}
