// Package metrics exports engine, cache and HTTP events as Prometheus
// metrics by implementing the observability hooks.
//
//	m := metrics.New()
//	m.Install()
//	srv := server.New(server.Config{Metrics: m.Handler()}, ...)
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/techtree/pkg/observability"
)

const namespace = "techtree"

// Metrics holds the collectors behind one registry. It implements
// [observability.EngineHooks], [observability.CacheHooks] and
// [observability.HTTPHooks].
type Metrics struct {
	registry *prometheus.Registry

	toggles    *prometheus.CounterVec
	revoked    prometheus.Counter
	resets     prometheus.Counter
	layouts    prometheus.Histogram
	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_total",
			Help:      "Toggle requests by outcome (none, completed, revoked).",
		}, []string{"kind"}),
		revoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_revoked_total",
			Help:      "Dependents revoked together with an undone node.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Completion set resets.",
		}),
		layouts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout pass duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.toggles, m.revoked, m.resets, m.layouts,
		m.cacheOps, m.cacheBytes, m.requests, m.latency,
		collectors.NewGoCollector(),
	)
	return m
}

// Install registers m as the process-wide engine, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetEngineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// TrackSessions exports the live session count, read from count at scrape
// time.
func (m *Metrics) TrackSessions(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Live sessions.",
	}, func() float64 { return float64(count()) }))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OnToggle(_ string, kind string, cascade int) {
	m.toggles.WithLabelValues(kind).Inc()
	m.revoked.Add(float64(cascade))
}

func (m *Metrics) OnReset(int) {
	m.resets.Inc()
}

func (m *Metrics) OnLayout(_, _ int, d time.Duration) {
	m.layouts.Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}
