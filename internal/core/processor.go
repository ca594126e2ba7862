package core

import "context"

// ListingSource produces the current listings for a query.
type ListingSource interface {
	Name() string
	// Search returns the listings matching the query. An error means the
	// whole query failed; callers treat it as an empty batch.
	Search(ctx context.Context, query QuerySpec) ([]Listing, error)
}

// ListingFilter drops listings before they reach the dedup store.
type ListingFilter interface {
	Name() string
	// Filter returns the listings to keep, in input order.
	Filter(ctx context.Context, query QuerySpec, listings []Listing) ([]Listing, error)
}

// Notifier delivers new-listing events to a messaging channel.
// Every method is best-effort; errors are logged by the caller.
type Notifier interface {
	Name() string
	NotifyItem(ctx context.Context, listing Listing) error
	NotifyBatch(ctx context.Context, listings []Listing) error
	NotifyError(ctx context.Context, message string) error
}

// StatusNotifier is implemented by notifiers that can report store status.
type StatusNotifier interface {
	NotifyStatus(ctx context.Context, stats StoreStats) error
}

// TriggerEvent represents a trigger firing.
type TriggerEvent struct {
	Name      string
	Timestamp Timestamp
}

// Trigger decides when cycles run.
type Trigger interface {
	Name() string
	// Start begins the trigger and returns a channel of events. The channel
	// is closed once ctx is done or Stop is called.
	Start(ctx context.Context) (<-chan TriggerEvent, error)
	Stop() error
}
