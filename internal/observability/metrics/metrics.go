// Package metrics exposes Prometheus counters for the watch cycle.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const MetricsNamespace = "boatwatch"

// Metrics holds the cycle metrics. A nil *Metrics records nothing.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	ListingsFetched    *prometheus.CounterVec
	ListingsNew        prometheus.Counter
	SourceErrors       *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	KnownListings      prometheus.Gauge
	LastCheck          prometheus.Gauge
}

// NewMetrics creates and registers the metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "cycles_total",
			Help:      "Total number of watch cycles by outcome",
		}, []string{"status"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of watch cycles in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		ListingsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "listings_fetched_total",
			Help:      "Listings returned by sources",
		}, []string{"source", "region"}),
		ListingsNew: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "listings_new_total",
			Help:      "Listings seen for the first time",
		}),
		SourceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "source_errors_total",
			Help:      "Failed source queries",
		}, []string{"source", "region"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by kind and outcome",
		}, []string{"kind", "status"}),
		KnownListings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "known_listings",
			Help:      "Listings held by the dedup store",
		}),
		LastCheck: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_check_timestamp_seconds",
			Help:      "Unix time of the last completed ingest",
		}),
	}
}

func (m *Metrics) RecordCycle(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(status).Inc()
	m.CycleDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordFetch(source, region string, count int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SourceErrors.WithLabelValues(source, region).Inc()
		return
	}
	m.ListingsFetched.WithLabelValues(source, region).Add(float64(count))
}

func (m *Metrics) RecordNew(count int) {
	if m == nil {
		return
	}
	m.ListingsNew.Add(float64(count))
}

func (m *Metrics) RecordNotification(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.NotificationsTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) RecordStore(known int, lastCheck *time.Time) {
	if m == nil {
		return
	}
	m.KnownListings.Set(float64(known))
	if lastCheck != nil {
		m.LastCheck.Set(float64(lastCheck.Unix()))
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
