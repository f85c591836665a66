package policy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains access-control evaluation metrics.
type Metrics struct {
	registerer prometheus.Registerer

	// evaluationTotal counts evaluations by decision.
	evaluationTotal *prometheus.CounterVec

	// evaluationDuration measures resolution duration (cache misses only).
	evaluationDuration prometheus.Histogram

	// cacheHits counts decision cache hits.
	cacheHits prometheus.Counter

	// cacheMisses counts decision cache misses.
	cacheMisses prometheus.Counter

	// resourceCount tracks the number of registered resource patterns.
	resourceCount prometheus.Gauge

	// ruleCount tracks the total number of registered rules.
	ruleCount prometheus.Gauge
}

// NewMetrics creates new access-control metrics registered with
// prometheus.DefaultRegisterer so they are automatically exposed on the
// default /metrics endpoint.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates a new Metrics instance with a custom
// registerer.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "cidrfence"
	}

	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registerer: registerer,
	}

	m.evaluationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "evaluation_total",
			Help:      "Total number of access evaluations",
		},
		[]string{"decision"},
	)

	m.evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "evaluation_duration_seconds",
			Help:      "Access resolution duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	m.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "cache_hits_total",
			Help:      "Total number of decision cache hits",
		},
	)

	m.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "cache_misses_total",
			Help:      "Total number of decision cache misses",
		},
	)

	m.resourceCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "resource_count",
			Help:      "Number of registered resource patterns",
		},
	)

	m.ruleCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "rule_count",
			Help:      "Total number of registered rules",
		},
	)

	// Register all metrics with the provided registerer, ignoring duplicates.
	collectors := []prometheus.Collector{
		m.evaluationTotal,
		m.evaluationDuration,
		m.cacheHits,
		m.cacheMisses,
		m.resourceCount,
		m.ruleCount,
	}
	for _, c := range collectors {
		_ = registerer.Register(c)
	}

	return m
}

// RecordEvaluation records a resolved access decision.
func (m *Metrics) RecordEvaluation(allowed bool, duration time.Duration) {
	if m == nil || m.evaluationTotal == nil {
		return
	}
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	m.evaluationTotal.WithLabelValues(decision).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordCacheHit records a decision cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

// RecordCacheMiss records a decision cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.Inc()
}

// SetResourceCount sets the registered resource pattern count.
func (m *Metrics) SetResourceCount(count int) {
	if m == nil || m.resourceCount == nil {
		return
	}
	m.resourceCount.Set(float64(count))
}

// SetRuleCount sets the total registered rule count.
func (m *Metrics) SetRuleCount(count int) {
	if m == nil || m.ruleCount == nil {
		return
	}
	m.ruleCount.Set(float64(count))
}
