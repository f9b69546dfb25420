// Package metrics exposes Prometheus metrics for HTTP requests, panel
// renders and lookups.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/jsonkv/internal/core"
)

// Metrics holds Prometheus metrics for the service.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	panels         *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	registry       *prometheus.Registry
}

// New creates and registers the metrics. A nil registry gets a fresh one.
func New(namespace string, registry *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "jsonkv"
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{registry: registry}

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	m.renders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "total",
			Help:      "Total number of panel renders by outcome",
		},
		[]string{"panel", "outcome"},
	)

	m.renderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Panel render duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"panel"},
	)

	m.panels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "panels_total",
			Help:      "Total number of panels produced by kind",
		},
		[]string{"panel", "kind"},
	)

	m.lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "total",
			Help:      "Total number of lookups by result",
		},
		[]string{"source", "result"},
	)

	m.lookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "duration_seconds",
			Help:      "Lookup duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"source"},
	)

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.renders,
		m.renderDuration,
		m.panels,
		m.lookups,
		m.lookupDuration,
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRender records one panel render. Ad-hoc renders use the panel
// label "adhoc".
func (m *Metrics) ObserveRender(panel string, result []core.Panel, elapsed time.Duration, err error) {
	if panel == "" {
		panel = "adhoc"
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.renders.WithLabelValues(panel, outcome).Inc()
	m.renderDuration.WithLabelValues(panel).Observe(elapsed.Seconds())

	for _, p := range result {
		m.panels.WithLabelValues(panel, string(p.Kind)).Inc()
	}
}

// InstrumentLookup wraps l so that every call is counted and timed.
func (m *Metrics) InstrumentLookup(l core.Lookup) core.Lookup {
	return core.LookupFunc(func(ctx context.Context, desc core.LookupDescriptor, value any) (map[string]any, bool, error) {
		start := time.Now()
		record, found, err := l.Lookup(ctx, desc, value)
		m.lookupDuration.WithLabelValues(desc.Source).Observe(time.Since(start).Seconds())

		result := "missing"
		switch {
		case err != nil:
			result = "error"
		case found:
			result = "found"
		}
		m.lookups.WithLabelValues(desc.Source, result).Inc()
		return record, found, err
	})
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
