package boats

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/bakkerme/boatwatch/internal/core"
)

const fixturePage = `<html><body>
<div class="listing-card">
  <a class="listing-link" href="/power-boats/2018-azimut-66-1001/">
    <h2 class="listing-title"> Azimut 66 Fly </h2>
  </a>
  <span class="listing-price">€ 1.250.000</span>
  <span class="listing-location">Genoa, Italy</span>
  <span class="year">2018</span>
  <span class="length">20.1 m</span>
  <p class="listing-description">Owner maintained, full electronics.</p>
  <img class="listing-image" src="https://images.example.com/1001.jpg">
</div>
<article class="vessel-card">
  <h2 class="listing-title">Riva Rivarama 44</h2>
  <a class="listing-link" href="https://www.boats.com/power-boats/2009-riva-44-2002/">view</a>
</article>
<div class="listing-card">
  <h2 class="listing-title">Sunseeker Manhattan 52</h2>
  <a class="listing-link" href="/power-boats/2012-sunseeker-52-3003/">view</a>
</div>
<div class="listing-card">
  <span class="listing-price">€ 90.000</span>
</div>
</body></html>`

const legacyPage = `<html><body>
<article class="vessel-card">
  <h2 class="listing-title">Riva Rivarama 44</h2>
  <a class="listing-link" href="/power-boats/2009-riva-44-2002/">view</a>
</article>
<article class="vessel-card">
  <h2 class="listing-title">Ferretti 550</h2>
  <a class="listing-link" href="/power-boats/2016-ferretti-550-2004/">view</a>
</article>
</body></html>`

func parseFixture(t *testing.T, page string) []Card {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture failed: %v", err)
	}
	return ParseCards(doc.Selection)
}

func TestParseCardsExtractsCards(t *testing.T) {
	cards := parseFixture(t, fixturePage)
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	first := cards[0]
	if first.Title != "Azimut 66 Fly" || first.Price != "€ 1.250.000" || first.Location != "Genoa, Italy" {
		t.Fatalf("unexpected first card %+v", first)
	}
	if first.Link != "/power-boats/2018-azimut-66-1001/" || first.ImageURL != "https://images.example.com/1001.jpg" {
		t.Fatalf("unexpected link/image %+v", first)
	}
	if cards[1].Title != "" || cards[1].Link != "" {
		t.Fatalf("expected empty title and link on second card, got %+v", cards[1])
	}
	if cards[2].Title != "Sunseeker Manhattan 52" {
		t.Fatalf("unexpected third card %+v", cards[2])
	}
}

func TestParseCardsSkipsLegacyLayoutWhenCurrentCardsExist(t *testing.T) {
	for _, card := range parseFixture(t, fixturePage) {
		if card.Title == "Riva Rivarama 44" {
			t.Fatalf("legacy card must be ignored when current cards exist: %+v", card)
		}
	}
}

func TestParseCardsFallsBackToLegacyLayout(t *testing.T) {
	cards := parseFixture(t, legacyPage)
	if len(cards) != 2 {
		t.Fatalf("expected 2 legacy cards, got %d", len(cards))
	}
	if cards[0].Title != "Riva Rivarama 44" || cards[1].Link != "/power-boats/2016-ferretti-550-2004/" {
		t.Fatalf("unexpected legacy cards %+v", cards)
	}
}

func TestSearchURL(t *testing.T) {
	params := SearchParams{BaseURL: "https://www.boats.com/", BoatType: "motorYacht", ListingType: "private"}

	domestic, err := SearchURL(params, core.QuerySpec{PriceThreshold: 600000, Region: core.RegionDomestic, HomeCountry: "IT"})
	if err != nil {
		t.Fatalf("domestic url failed: %v", err)
	}
	u, _ := url.Parse(domestic)
	if u.Path != "/boats-for-sale" || u.Query().Get("price_max") != "600000" || u.Query().Get("location") != "IT" {
		t.Fatalf("unexpected domestic url %s", domestic)
	}
	if u.Query().Get("price_min") != "" {
		t.Fatalf("domestic url must not carry a price floor: %s", domestic)
	}

	global, err := SearchURL(params, core.QuerySpec{PriceThreshold: 600000, Region: core.RegionGlobal, HomeCountry: "IT"})
	if err != nil {
		t.Fatalf("global url failed: %v", err)
	}
	u, _ = url.Parse(global)
	if u.Query().Get("price_min") != "600000" || u.Query().Get("location") != "" || u.Query().Get("listing_type") != "private" {
		t.Fatalf("unexpected global url %s", global)
	}

	if _, err := SearchURL(params, core.QuerySpec{Region: "moon"}); err == nil {
		t.Fatalf("expected unknown region to fail")
	}
}
