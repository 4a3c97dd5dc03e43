package work

import (
	"fmt"

	"github.com/dshills/treework-go/work/emit"
)

// Option is a functional option for configuring a Runtime.
//
// Options are applied in order by NewRuntime; an option returning an error
// aborts construction.
//
// Example:
//
//	rt, err := work.NewRuntime(
//	    work.WithRun("etl-2024-06"),
//	    work.WithWorkers(16),
//	    work.WithMetrics(metrics),
//	)
type Option func(*runtimeConfig) error

// runtimeConfig collects options before they are applied to a Runtime.
type runtimeConfig struct {
	run     string
	workers int
	exec    Executor
	emitter emit.Emitter
	metrics *PrometheusMetrics
}

// WithRun sets the run label attached to every event the runtime emits.
// Journals group transition history under this label.
//
// Default: "default".
func WithRun(run string) Option {
	return func(cfg *runtimeConfig) error {
		if run == "" {
			return fmt.Errorf("run label cannot be empty")
		}
		cfg.run = run
		return nil
	}
}

// WithWorkers sets the size of the runtime's bounded pool.
//
// Default: DefaultWorkers (8).
//
// Tuning guidance:
//   - CPU-bound callbacks: runtime.NumCPU()
//   - I/O-bound callbacks: 10-50 depending on external limits
//
// Ignored when WithExecutor is also given. Callbacks that block on sibling
// nodes can starve a small pool; use WithExecutor(GoExecutor{}) for the
// unbounded goroutine-per-activation model instead.
func WithWorkers(n int) Option {
	return func(cfg *runtimeConfig) error {
		if n <= 0 {
			return fmt.Errorf("worker count must be positive, got %d", n)
		}
		cfg.workers = n
		return nil
	}
}

// WithExecutor replaces the runtime's bounded pool with a custom Executor.
// The runtime does not manage the executor's lifecycle; Close becomes a
// no-op.
func WithExecutor(exec Executor) Option {
	return func(cfg *runtimeConfig) error {
		if exec == nil {
			return fmt.Errorf("executor cannot be nil")
		}
		cfg.exec = exec
		return nil
	}
}

// WithEmitter sets the emitter receiving node lifecycle events
// (work_triggered, work_started, work_completed, work_failed, work_reset).
//
// Default: no emission. Use emit.NewFanout to combine backends, for
// example a log emitter plus a persistent journal.
func WithEmitter(emitter emit.Emitter) Option {
	return func(cfg *runtimeConfig) error {
		cfg.emitter = emitter
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
//
// Metrics exposed:
//   - treework_inflight_workers: currently running callbacks
//   - treework_queue_depth: callbacks waiting in the ready queue
//   - treework_work_duration_ms: callback duration histogram
//   - treework_completions_total: terminal outcomes by result
//   - treework_triggers_total: qualifying trigger calls by node
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := work.NewPrometheusMetrics(registry)
//	rt, err := work.NewRuntime(work.WithMetrics(metrics))
//
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *runtimeConfig) error {
		cfg.metrics = metrics
		return nil
	}
}
