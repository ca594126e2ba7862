package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersUpdateCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordCycle("ok", 2*time.Second)
	m.RecordFetch("boats", "global", 3, nil)
	m.RecordFetch("boats", "global", 0, errors.New("timeout"))
	m.RecordNew(2)
	m.RecordNotification("item", nil)
	m.RecordNotification("item", errors.New("blocked"))
	m.RecordStore(7, nil)

	if got := testutil.ToFloat64(m.CyclesTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("cycles_total = %v", got)
	}
	if got := testutil.ToFloat64(m.ListingsFetched.WithLabelValues("boats", "global")); got != 3 {
		t.Fatalf("listings_fetched_total = %v", got)
	}
	if got := testutil.ToFloat64(m.SourceErrors.WithLabelValues("boats", "global")); got != 1 {
		t.Fatalf("source_errors_total = %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("item", "error")); got != 1 {
		t.Fatalf("notifications_total{error} = %v", got)
	}
	if got := testutil.ToFloat64(m.KnownListings); got != 7 {
		t.Fatalf("known_listings = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordCycle("ok", time.Second)
	m.RecordFetch("boats", "domestic", 1, nil)
	m.RecordNew(1)
	m.RecordNotification("batch", nil)
	m.RecordStore(1, nil)
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordNew(4)

	server := httptest.NewServer(Handler(reg))
	defer server.Close()
	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "boatwatch_listings_new_total 4") {
		t.Fatalf("expected counter in output, got %s", body)
	}
}
