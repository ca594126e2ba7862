package core

import "fmt"

// Region selects which half of the market a query covers.
type Region string

const (
	// RegionDomestic searches the home country below the price threshold.
	RegionDomestic Region = "domestic"
	// RegionGlobal searches everywhere at or above the price threshold.
	RegionGlobal Region = "global"
)

func (r Region) Valid() bool {
	return r == RegionDomestic || r == RegionGlobal
}

// QuerySpec is one search request issued to a ListingSource.
type QuerySpec struct {
	PriceThreshold    int
	Region            Region
	HomeCountry       string
	ExcludedCountries []string
}

func (q QuerySpec) String() string {
	return fmt.Sprintf("%s@%d", q.Region, q.PriceThreshold)
}

// SearchPolicy holds the thresholds that shape the per-cycle queries.
type SearchPolicy struct {
	PriceThreshold    int
	HighValueCutoff   int
	HomeCountry       string
	ExcludedCountries []string
}

// ExcludesCountries reports whether global results must be filtered by country.
func (p SearchPolicy) ExcludesCountries() bool {
	return len(p.ExcludedCountries) > 0 && p.PriceThreshold >= p.HighValueCutoff
}

// Queries returns the domestic and global specs, in that order.
func (p SearchPolicy) Queries() []QuerySpec {
	domestic := QuerySpec{
		PriceThreshold: p.PriceThreshold,
		Region:         RegionDomestic,
		HomeCountry:    p.HomeCountry,
	}
	global := QuerySpec{
		PriceThreshold: p.PriceThreshold,
		Region:         RegionGlobal,
		HomeCountry:    p.HomeCountry,
	}
	if p.ExcludesCountries() {
		global.ExcludedCountries = append([]string(nil), p.ExcludedCountries...)
	}
	return []QuerySpec{domestic, global}
}
