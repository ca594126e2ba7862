package dedupe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bakkerme/boatwatch/internal/core"
)

var (
	// ErrNotFound is returned by a Persister that has no saved state yet.
	ErrNotFound = errors.New("dedupe state not found")
	// ErrPersist wraps failures to durably save state after an ingest.
	ErrPersist = errors.New("persist dedupe state")
)

// State is the persisted content of the store.
type State struct {
	Listings  map[string]core.Listing `json:"yachts"`
	LastCheck core.Timestamp          `json:"last_check"`
}

func emptyState() State {
	return State{Listings: map[string]core.Listing{}}
}

// Persister loads and saves the full store state.
type Persister interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
	// Location describes where state lives (file path or DSN).
	Location() string
	Close() error
}

// Store remembers every listing ever reported and computes the new-item delta
// of each batch. Known listings are never removed or overwritten.
type Store struct {
	mu        sync.Mutex
	persister Persister
	logger    *slog.Logger
	state     State
	now       func() time.Time
}

// Open loads the persisted state. A missing state starts empty; an unreadable
// one is logged and also starts empty, since the source can always be re-queried.
// A cancelled or expired ctx fails Open instead.
func Open(ctx context.Context, persister Persister, logger *slog.Logger) (*Store, error) {
	if persister == nil {
		return nil, fmt.Errorf("dedupe persister is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		persister: persister,
		logger:    logger,
		state:     emptyState(),
		now:       time.Now,
	}
	state, err := persister.Load(ctx)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("load dedupe state: %w", err)
	case errors.Is(err, ErrNotFound):
		logger.Info("no dedupe state found, starting empty", "location", persister.Location())
	case err != nil:
		logger.Error("dedupe state unreadable, starting empty", "location", persister.Location(), "error", err)
	default:
		if state.Listings == nil {
			state.Listings = map[string]core.Listing{}
		}
		s.state = state
		logger.Info("dedupe state loaded", "location", persister.Location(), "known", len(state.Listings))
	}
	return s, nil
}

// Ingest returns the listings of batch whose id was not known before, in
// batch order, and records them. Duplicates inside the batch count once.
// The full state is saved before returning; a save failure is reported as
// ErrPersist alongside the computed delta, and the delta is rolled back so
// the same listings are new again on the next call.
func (s *Store) Ingest(ctx context.Context, batch []core.Listing) ([]core.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newItems := []core.Listing{}
	for _, listing := range batch {
		listing.EnsureID()
		if _, known := s.state.Listings[listing.ID]; known {
			continue
		}
		s.state.Listings[listing.ID] = listing
		newItems = append(newItems, listing)
	}
	previousCheck := s.state.LastCheck
	s.state.LastCheck = core.NewTimestamp(s.now())

	if err := s.persister.Save(ctx, s.snapshotLocked()); err != nil {
		for _, listing := range newItems {
			delete(s.state.Listings, listing.ID)
		}
		s.state.LastCheck = previousCheck
		return newItems, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.logger.Debug("dedupe state saved", "new", len(newItems), "known", len(s.state.Listings))
	return newItems, nil
}

// Stats reports the number of known listings and the last check time.
func (s *Store) Stats() core.StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.StoreStats{
		TotalKnown: len(s.state.Listings),
		LastCheck:  s.state.LastCheck.Ptr(),
		Location:   s.persister.Location(),
	}
}

// Known returns the first-seen copy of a listing.
func (s *Store) Known(id string) (core.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.state.Listings[id]
	return listing, ok
}

func (s *Store) Close() error {
	if s == nil || s.persister == nil {
		return nil
	}
	return s.persister.Close()
}

func (s *Store) snapshotLocked() State {
	listings := make(map[string]core.Listing, len(s.state.Listings))
	for id, listing := range s.state.Listings {
		listings[id] = listing
	}
	return State{Listings: listings, LastCheck: s.state.LastCheck}
}
