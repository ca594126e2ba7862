package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakkerme/boatwatch/internal/core"
	"github.com/bakkerme/boatwatch/internal/observability/metrics"
)

var (
	// ErrCycleInProgress is returned when a cycle is requested while another one runs.
	ErrCycleInProgress = errors.New("cycle already in progress")
	// ErrCyclePanic wraps a panic recovered at the cycle boundary.
	ErrCyclePanic = errors.New("cycle panicked")
)

// Store is the part of the dedup store the runner needs.
type Store interface {
	Ingest(ctx context.Context, batch []core.Listing) ([]core.Listing, error)
	Stats() core.StoreStats
}

// Config wires a Runner. Filters run in order on every query's batch.
// ItemDelay separates successive item notifications; BatchDelay is waited
// before the summary.
type Config struct {
	Policy     core.SearchPolicy
	Sources    []core.ListingSource
	Filters    []core.ListingFilter
	Store      Store
	Notifier   core.Notifier
	Metrics    *metrics.Metrics
	ItemDelay  time.Duration
	BatchDelay time.Duration
	Logger     *slog.Logger
}

// SourceError records one failed (query, source) fetch.
type SourceError struct {
	Source string
	Query  core.QuerySpec
	Err    error
}

// CycleResult summarizes one cycle.
type CycleResult struct {
	ID           string
	StartedAt    time.Time
	CompletedAt  time.Time
	Fetched      int
	Candidates   int
	NewItems     []core.Listing
	SourceErrors []SourceError
	NotifyErrors int
	Stats        core.StoreStats
}

type Runner struct {
	config  Config
	logger  *slog.Logger
	tracer  trace.Tracer
	cycleMu sync.Mutex
	wg      sync.WaitGroup
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

func New(cfg Config) (*Runner, error) {
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		config: cfg,
		logger: cfg.Logger,
		tracer: otel.Tracer("github.com/bakkerme/boatwatch/internal/runner"),
		sleep:  sleepContext,
		now:    time.Now,
	}, nil
}

// Start runs a cycle for every trigger event until ctx is done. Cycles run
// one at a time on a context detached from ctx, so a shutdown lets the
// in-flight cycle finish; use Wait to block until it has.
func (r *Runner) Start(ctx context.Context, trigger core.Trigger) error {
	if trigger == nil {
		return fmt.Errorf("trigger is required")
	}
	events, err := trigger.Start(ctx)
	if err != nil {
		return fmt.Errorf("start trigger %s: %w", trigger.Name(), err)
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.listen(ctx, events)
	}()
	return nil
}

// Wait blocks until the scheduling loop has exited and no cycle is running.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) listen(ctx context.Context, events <-chan core.TriggerEvent) {
	cycleCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler stopping")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			r.logger.Info("trigger event", "trigger", event.Name, "time", event.Timestamp.Time)
			if _, err := r.RunCycle(cycleCtx); err != nil {
				r.logger.Error("cycle failed", "error", err)
			}
		}
	}
}

// AnnounceStatus sends the store status through the notifier when it
// supports status messages.
func (r *Runner) AnnounceStatus(ctx context.Context) error {
	status, ok := r.config.Notifier.(core.StatusNotifier)
	if !ok {
		return nil
	}
	err := status.NotifyStatus(ctx, r.config.Store.Stats())
	r.config.Metrics.RecordNotification("status", err)
	return err
}

// RunCycle performs one fetch, filter, ingest and notify pass. It returns
// ErrCycleInProgress without doing anything if another cycle is running.
func (r *Runner) RunCycle(ctx context.Context) (result *CycleResult, err error) {
	if !r.cycleMu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer r.cycleMu.Unlock()

	cycleID := uuid.NewString()
	logger := r.logger.With("cycle_id", cycleID)
	ctx = core.WithLogger(ctx, logger)
	ctx, span := r.tracer.Start(ctx, "boatwatch.cycle", trace.WithAttributes(attribute.String("cycle.id", cycleID)))
	defer span.End()

	result = &CycleResult{ID: cycleID, StartedAt: r.now().UTC()}
	logger.Info("cycle started")

	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, recovered)
			logger.Error("cycle panicked", "panic", recovered, "stack", string(debug.Stack()))
			r.notifyError(ctx, fmt.Sprintf("unexpected error: %v", recovered))
		}
		result.CompletedAt = r.now().UTC()
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		r.config.Metrics.RecordCycle(status, result.CompletedAt.Sub(result.StartedAt))
	}()

	err = r.runCycle(ctx, result)
	return result, err
}

func (r *Runner) runCycle(ctx context.Context, result *CycleResult) error {
	logger := core.Logger(ctx, r.logger)
	queries := r.config.Policy.Queries()

	batches := r.fetch(ctx, queries, result)

	combined := []core.Listing{}
	for i, query := range queries {
		batch, err := r.filter(ctx, query, batches[i])
		if err != nil {
			r.notifyError(ctx, fmt.Sprintf("filtering %s listings failed: %v", query.Region, err))
			return err
		}
		combined = append(combined, batch...)
	}
	result.Candidates = len(combined)

	newItems, err := r.config.Store.Ingest(ctx, combined)
	result.NewItems = newItems
	if err != nil {
		logger.Error("ingest failed, notifications withheld", "error", err, "new", len(newItems))
		r.notifyError(ctx, fmt.Sprintf("saving the listing store failed, %d new listings were not announced: %v", len(newItems), err))
		return fmt.Errorf("ingest: %w", err)
	}
	r.config.Metrics.RecordNew(len(newItems))
	logger.Info("ingest complete", "candidates", len(combined), "new", len(newItems))

	// The delta is committed; every new listing must be announced even if
	// ctx is cancelled meanwhile.
	if err := r.notify(context.WithoutCancel(ctx), newItems, result); err != nil {
		return err
	}

	result.Stats = r.config.Store.Stats()
	r.config.Metrics.RecordStore(result.Stats.TotalKnown, result.Stats.LastCheck)
	logger.Info("cycle complete",
		"fetched", result.Fetched,
		"new", len(newItems),
		"source_errors", len(result.SourceErrors),
		"notify_errors", result.NotifyErrors,
		"known", result.Stats.TotalKnown,
		"store", result.Stats.Location,
	)
	return nil
}

// fetch queries every source for every query concurrently. Results are
// placed by slot so the merge order never depends on completion order.
func (r *Runner) fetch(ctx context.Context, queries []core.QuerySpec, result *CycleResult) [][]core.Listing {
	sources := r.config.Sources
	slots := make([][]core.Listing, len(queries)*len(sources))
	errs := make([]error, len(slots))

	var wg sync.WaitGroup
	for qi, query := range queries {
		for si, source := range sources {
			slot := qi*len(sources) + si
			wg.Add(1)
			go func() {
				defer wg.Done()
				slots[slot], errs[slot] = r.search(ctx, source, query)
			}()
		}
	}
	wg.Wait()

	logger := core.Logger(ctx, r.logger)
	batches := make([][]core.Listing, len(queries))
	for qi, query := range queries {
		for si, source := range sources {
			slot := qi*len(sources) + si
			r.config.Metrics.RecordFetch(source.Name(), string(query.Region), len(slots[slot]), errs[slot])
			if errs[slot] != nil {
				logger.Warn("source query failed, continuing with an empty batch",
					"source", source.Name(),
					"query", query.String(),
					"error", errs[slot],
				)
				result.SourceErrors = append(result.SourceErrors, SourceError{Source: source.Name(), Query: query, Err: errs[slot]})
				continue
			}
			result.Fetched += len(slots[slot])
			batches[qi] = append(batches[qi], slots[slot]...)
		}
	}
	return batches
}

func (r *Runner) search(ctx context.Context, source core.ListingSource, query core.QuerySpec) (listings []core.Listing, err error) {
	ctx, span := r.tracer.Start(ctx, "boatwatch.source", trace.WithAttributes(
		attribute.String("source.name", source.Name()),
		attribute.String("query.region", string(query.Region)),
		attribute.Int("query.price_threshold", query.PriceThreshold),
	))
	defer span.End()
	defer func() {
		if recovered := recover(); recovered != nil {
			listings, err = nil, fmt.Errorf("source %s panicked: %v", source.Name(), recovered)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	listings, err = source.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("listings.count", len(listings)))
	return listings, nil
}

func (r *Runner) filter(ctx context.Context, query core.QuerySpec, batch []core.Listing) ([]core.Listing, error) {
	logger := core.Logger(ctx, r.logger)
	for _, f := range r.config.Filters {
		before := len(batch)
		next, err := f.Filter(ctx, query, batch)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Name(), err)
		}
		batch = next
		if dropped := before - len(batch); dropped > 0 {
			logger.Info("listings filtered", "filter", f.Name(), "query", query.String(), "dropped", dropped)
		}
	}
	return batch, nil
}

func (r *Runner) notify(ctx context.Context, newItems []core.Listing, result *CycleResult) error {
	if len(newItems) == 0 {
		return nil
	}
	logger := core.Logger(ctx, r.logger)
	ctx, span := r.tracer.Start(ctx, "boatwatch.notify", trace.WithAttributes(attribute.Int("listings.new", len(newItems))))
	defer span.End()

	for i, listing := range newItems {
		if i > 0 {
			if err := r.sleep(ctx, r.config.ItemDelay); err != nil {
				return fmt.Errorf("notify interrupted: %w", err)
			}
		}
		err := r.config.Notifier.NotifyItem(ctx, listing)
		r.config.Metrics.RecordNotification("item", err)
		if err != nil {
			result.NotifyErrors++
			logger.Error("item notification failed", "listing_id", listing.ID, "error", err)
		}
	}

	if len(newItems) > 1 {
		if err := r.sleep(ctx, r.config.BatchDelay); err != nil {
			return fmt.Errorf("notify interrupted: %w", err)
		}
		err := r.config.Notifier.NotifyBatch(ctx, newItems)
		r.config.Metrics.RecordNotification("batch", err)
		if err != nil {
			result.NotifyErrors++
			logger.Error("batch notification failed", "count", len(newItems), "error", err)
		}
	}
	return nil
}

func (r *Runner) notifyError(ctx context.Context, message string) {
	err := r.config.Notifier.NotifyError(ctx, message)
	r.config.Metrics.RecordNotification("error", err)
	if err != nil {
		core.Logger(ctx, r.logger).Error("error notification failed", "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
