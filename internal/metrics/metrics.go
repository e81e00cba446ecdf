package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the listing editor agent.
// Every recording method is safe on a nil receiver so components can run
// without metrics in tests.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Marketplace Metrics
	MarketplaceRequestsTotal   *prometheus.CounterVec
	MarketplaceRequestDuration *prometheus.HistogramVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Editor Metrics
	EditorsActive         prometheus.Gauge
	ReconcilePatchesTotal *prometheus.CounterVec
	PipelineStagesTotal   *prometheus.CounterVec
	MutationsTotal        *prometheus.CounterVec
	WarmupDuration        prometheus.Histogram
}

// NewMetricsRegistry registers every metric with reg. Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_editor_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "listing_editor_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "listing_editor_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Marketplace Metrics
		MarketplaceRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_editor_marketplace_requests_total",
				Help: "Outbound marketplace requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		MarketplaceRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "listing_editor_marketplace_request_duration_seconds",
				Help:    "Outbound marketplace request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_editor_cache_hits_total",
				Help: "Total query cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_editor_cache_misses_total",
				Help: "Total query cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Editor Metrics
		EditorsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "listing_editor_editors_active",
				Help: "Current number of open editor instances",
			},
		),
		ReconcilePatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_editor_reconcile_patches_total",
				Help: "Fields restored by edit reconciliation, by field and match method",
			},
			[]string{"field", "method"},
		),
		PipelineStagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_editor_pipeline_stages_total",
				Help: "Submission pipeline stage outcomes",
			},
			[]string{"stage", "outcome"},
		),
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_editor_optimistic_mutations_total",
				Help: "Optimistic mutations by name and result (committed, rolled_back)",
			},
			[]string{"mutation", "result"},
		),
		WarmupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "listing_editor_warmup_duration_seconds",
				Help:    "Reference data warm-up run time in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
	}
}

func (m *MetricsRegistry) ObserveMarketplace(operation, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.MarketplaceRequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.MarketplaceRequestDuration.WithLabelValues(operation).Observe(took.Seconds())
}

func (m *MetricsRegistry) CacheHit(pattern string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) CacheMiss(pattern string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) EditorOpened() {
	if m == nil {
		return
	}
	m.EditorsActive.Inc()
}

func (m *MetricsRegistry) EditorClosed() {
	if m == nil {
		return
	}
	m.EditorsActive.Dec()
}

func (m *MetricsRegistry) ReconcilePatch(field, method string) {
	if m == nil {
		return
	}
	m.ReconcilePatchesTotal.WithLabelValues(field, method).Inc()
}

func (m *MetricsRegistry) PipelineStage(stage, outcome string) {
	if m == nil {
		return
	}
	m.PipelineStagesTotal.WithLabelValues(stage, outcome).Inc()
}

func (m *MetricsRegistry) Mutation(name, result string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(name, result).Inc()
}

func (m *MetricsRegistry) ObserveWarmup(took time.Duration) {
	if m == nil {
		return
	}
	m.WarmupDuration.Observe(took.Seconds())
}
