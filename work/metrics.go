package work

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics for graph
// execution monitoring in production environments.
//
// Metrics exposed (all namespaced with "treework_"):
//
// 1. inflight_workers (gauge): worker callbacks currently executing.
// Use: monitor concurrency levels against the pool size.
//
// 2. queue_depth (gauge): callbacks waiting in the pool's ready queue.
// Use: track backpressure when fan-out outpaces the workers.
//
// 3. work_duration_ms (histogram): callback duration in milliseconds,
// from activation to reported outcome. Labels: node, outcome.
// Buckets: [1, 5, 10, 50, 100, 500, 1000, 5000, 10000].
// Use: P50/P95/P99 latency analysis per node.
//
// 4. completions_total (counter): terminal outcomes. Labels: outcome
// (completed/failed).
// Use: track graph health and failure rates.
//
// 5. triggers_total (counter): qualifying trigger calls per node.
// Labels: node.
// Use: verify fan-in behavior of PolicyAll gates.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := work.NewPrometheusMetrics(registry)
//	rt, err := work.NewRuntime(work.WithMetrics(metrics))
//
//	// Expose via HTTP for Prometheus scraping:
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: all updates go through prometheus client primitives.
type PrometheusMetrics struct {
	inflightWorkers prometheus.Gauge
	queueDepth      prometheus.Gauge
	workDuration    *prometheus.HistogramVec
	completions     *prometheus.CounterVec
	triggers        *prometheus.CounterVec

	registry prometheus.Registerer
	enabled  bool
}

// NewPrometheusMetrics creates and registers all execution metrics with the
// provided Prometheus registry.
//
// Pass prometheus.DefaultRegisterer for the global registry, or a dedicated
// prometheus.NewRegistry() for isolation (recommended in tests).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.inflightWorkers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "treework",
		Name:      "inflight_workers",
		Help:      "Current number of worker callbacks executing concurrently",
	})

	pm.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "treework",
		Name:      "queue_depth",
		Help:      "Number of activated callbacks waiting in the pool's ready queue",
	})

	pm.workDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "treework",
		Name:      "work_duration_ms",
		Help:      "Worker callback duration in milliseconds, activation to reported outcome",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000}, // 1ms to 10s
	}, []string{"node", "outcome"}) // outcome: completed, failed

	pm.completions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "treework",
		Name:      "completions_total",
		Help:      "Terminal node outcomes by result",
	}, []string{"outcome"}) // outcome: completed, failed

	pm.triggers = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "treework",
		Name:      "triggers_total",
		Help:      "Qualifying trigger calls (successful parent completions) per node",
	}, []string{"node"})

	return pm
}

// RecordTrigger increments the trigger counter for a node. Called once per
// successful parent completion delivered to the node.
func (pm *PrometheusMetrics) RecordTrigger(node string) {
	if !pm.enabled {
		return
	}
	pm.triggers.WithLabelValues(node).Inc()
}

// WorkStarted increments the inflight gauge when a node enters Running.
func (pm *PrometheusMetrics) WorkStarted() {
	if !pm.enabled {
		return
	}
	pm.inflightWorkers.Inc()
}

// WorkFinished records a terminal outcome: decrements the inflight gauge,
// increments the completion counter, and observes the callback duration.
func (pm *PrometheusMetrics) WorkFinished(node, outcome string, d time.Duration) {
	if !pm.enabled {
		return
	}
	pm.inflightWorkers.Dec()
	pm.completions.WithLabelValues(outcome).Inc()
	pm.workDuration.WithLabelValues(node, outcome).Observe(float64(d.Milliseconds()))
}

// SetQueueDepth records the current ready-queue length. Updated by the
// pool on every enqueue and dequeue.
func (pm *PrometheusMetrics) SetQueueDepth(depth int) {
	if !pm.enabled {
		return
	}
	pm.queueDepth.Set(float64(depth))
}

// Disable turns metric recording off. Useful to compare instrumented and
// uninstrumented performance without rewiring the runtime.
func (pm *PrometheusMetrics) Disable() {
	pm.enabled = false
}
