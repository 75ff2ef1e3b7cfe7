// Package metrics records export and HTTP metrics with Prometheus.
//
// Metrics:
//   - <ns>_exports_total: export attempts by format and status
//   - <ns>_export_records_total: records exported by format
//   - <ns>_export_duration_seconds: export duration histogram
//   - <ns>_export_size_bytes: encoded artifact size histogram
//   - <ns>_exports_active / <ns>_exports_available: limiter slots
//   - <ns>_http_requests_total: HTTP requests by route, method and status
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/tabexport/internal/core"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "tabexport"

// Collector owns a registry and the export metrics. It implements
// core.Observer.
type Collector struct {
	registry *prometheus.Registry

	exportsTotal   *prometheus.CounterVec
	recordsTotal   *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	exportSize     *prometheus.HistogramVec
	requestsTotal  *prometheus.CounterVec

	namespace string
}

// NewCollector creates and registers the metrics. A nil registry gets a
// fresh one with the Go and process collectors attached.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		registry:  registry,
		namespace: namespace,
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total number of export attempts",
			},
			[]string{"format", "status"},
		),
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "export_records_total",
				Help:      "Total number of records in successful exports",
			},
			[]string{"format"},
		),
		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_duration_seconds",
				Help:      "Duration of exports in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"format"},
		),
		exportSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_size_bytes",
				Help:      "Size of encoded export artifacts in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KB to 16MB
			},
			[]string{"format"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
	}

	registry.MustRegister(
		c.exportsTotal,
		c.recordsTotal,
		c.exportDuration,
		c.exportSize,
		c.requestsTotal,
	)
	return c
}

// ObserveExport records one export attempt.
func (c *Collector) ObserveExport(format core.ExportFormat, records, bytes int, err error, elapsed time.Duration) {
	f := string(format)

	status := "success"
	if err != nil {
		status = "error"
	}
	c.exportsTotal.WithLabelValues(f, status).Inc()
	c.exportDuration.WithLabelValues(f).Observe(elapsed.Seconds())

	if err == nil {
		c.recordsTotal.WithLabelValues(f).Add(float64(records))
		c.exportSize.WithLabelValues(f).Observe(float64(bytes))
	}
}

// WatchLimiter exposes the limiter's slots, queue and rejections.
func (c *Collector) WatchLimiter(l *core.ExportLimiter) {
	gauge := func(name, help string, read func(core.ExportLimiterStatus) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: c.namespace, Name: name, Help: help},
			func() float64 { return read(l.Status()) },
		)
	}

	c.registry.MustRegister(
		gauge("exports_active", "Exports currently holding a limiter slot",
			func(s core.ExportLimiterStatus) float64 { return float64(s.Active) }),
		gauge("exports_available", "Free limiter slots",
			func(s core.ExportLimiterStatus) float64 { return float64(s.Available) }),
		gauge("exports_queued", "Exports waiting for a limiter slot",
			func(s core.ExportLimiterStatus) float64 { return float64(s.Queued) }),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: c.namespace,
				Name:      "exports_rejected_total",
				Help:      "Exports turned away after waiting for a slot",
			},
			func() float64 { return float64(l.Status().Rejected) },
		),
	)
}

// Middleware counts requests by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }
