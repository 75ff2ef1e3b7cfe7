package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/tabexport/internal/core"
)

func newTestCollector() *Collector {
	return NewCollector("test", prometheus.NewRegistry())
}

func TestObserveExport(t *testing.T) {
	c := newTestCollector()

	c.ObserveExport(core.FormatCSV, 10, 2048, nil, 5*time.Millisecond)
	c.ObserveExport(core.FormatCSV, 5, 100, nil, time.Millisecond)
	c.ObserveExport(core.FormatJSON, 0, 0, errors.New("boom"), time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"csv success", testutil.ToFloat64(c.exportsTotal.WithLabelValues("csv", "success")), 2},
		{"json error", testutil.ToFloat64(c.exportsTotal.WithLabelValues("json", "error")), 1},
		{"csv records", testutil.ToFloat64(c.recordsTotal.WithLabelValues("csv")), 15},
		{"json records", testutil.ToFloat64(c.recordsTotal.WithLabelValues("json")), 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(c.exportDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
	if n := testutil.CollectAndCount(c.exportSize); n != 1 {
		t.Errorf("size series = %d, want 1 (failures not observed)", n)
	}
}

func TestObserveExport_FromExporter(t *testing.T) {
	c := newTestCollector()
	e := core.New(core.SinkFunc(func(context.Context, core.Artifact) error { return nil }), core.WithObserver(c))

	records := []core.Record{core.NewRecord(core.Field{Key: "a", Value: core.Number(1)})}
	if err := e.ExportJSON(context.Background(), records, core.ExportConfig{}); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	e.ExportCSV(context.Background(), nil, core.ExportConfig{})

	if got := testutil.ToFloat64(c.exportsTotal.WithLabelValues("json", "success")); got != 1 {
		t.Errorf("json success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.exportsTotal.WithLabelValues("csv", "error")); got != 1 {
		t.Errorf("csv error = %v, want 1", got)
	}
}

func TestWatchLimiter(t *testing.T) {
	c := newTestCollector()
	l := core.NewExportLimiter(2, 10*time.Millisecond)
	c.WatchLimiter(l)

	release, _ := l.TryAcquire(core.FormatCSV)
	defer release()
	l.TryAcquire(core.FormatJSON)
	l.Acquire(context.Background(), core.FormatPDF)

	expected := `
# HELP test_exports_active Exports currently holding a limiter slot
# TYPE test_exports_active gauge
test_exports_active 2
# HELP test_exports_available Free limiter slots
# TYPE test_exports_available gauge
test_exports_available 0
# HELP test_exports_queued Exports waiting for a limiter slot
# TYPE test_exports_queued gauge
test_exports_queued 0
# HELP test_exports_rejected_total Exports turned away after waiting for a slot
# TYPE test_exports_rejected_total counter
test_exports_rejected_total 1
`
	names := []string{"test_exports_active", "test_exports_available", "test_exports_queued", "test_exports_rejected_total"}
	if err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), names...); err != nil {
		t.Errorf("unexpected limiter metrics: %v", err)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	c := newTestCollector()

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Method(http.MethodGet, "/metrics", c.Handler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/items/"+string(rune('a'+i)), nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("/items/{id}", "GET", "418")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "test_http_requests_total") {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}

func TestNewCollector_DefaultNamespace(t *testing.T) {
	c := NewCollector("", nil)
	c.ObserveExport(core.FormatPDF, 1, 1, nil, time.Millisecond)

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	var found, goMetrics bool
	for _, f := range families {
		if f.GetName() == "tabexport_exports_total" {
			found = true
		}
		if strings.HasPrefix(f.GetName(), "go_") {
			goMetrics = true
		}
	}
	if !found {
		t.Error("tabexport_exports_total not registered")
	}
	if !goMetrics {
		t.Error("go runtime collector not registered")
	}
}
