package core

import "time"

// SellerTypePrivate is the seller tag attached to every listing of the private-seller feed.
const SellerTypePrivate = "Private Seller"

// Placeholders used when an ad omits an optional field.
const (
	NotAvailable = "N/A"
	NoLocation   = "Not specified"
)

// Listing is one boat-for-sale advertisement as observed at a point in time.
// JSON keys match the persisted store format.
type Listing struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	PriceDisplay string    `json:"price"`
	PriceValue   int       `json:"price_value"`
	Location     string    `json:"location"`
	Year         string    `json:"year"`
	Length       string    `json:"length"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url,omitempty"`
	Link         string    `json:"link"`
	FoundAt      Timestamp `json:"found_at"`
	SellerType   string    `json:"seller_type"`
	Region       Region    `json:"region,omitempty"`
	Source       string    `json:"source,omitempty"`
}

// EnsureID fills in the identifier from the link when a source left it empty.
func (l *Listing) EnsureID() {
	if l.ID == "" {
		l.ID = DeriveID(l.Link)
	}
}

// StoreStats is a read-only view of the dedup store.
type StoreStats struct {
	TotalKnown int        `json:"total_known"`
	LastCheck  *time.Time `json:"last_check,omitempty"`
	Location   string     `json:"location"`
}
