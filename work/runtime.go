package work

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/treework-go/work/emit"
)

// Runtime is the shared execution environment for a set of Work nodes.
//
// It owns:
//   - the Executor that starts worker callbacks (a bounded Pool by default)
//   - the emit.Emitter receiving lifecycle events
//   - optional Prometheus metrics
//   - the event sequence counter and run label
//
// Nodes created through the same Runtime share all of the above. A Runtime
// is cheap; create one per graph, or one per process.
//
// Example:
//
//	rt, err := work.NewRuntime(
//	    work.WithRun("nightly-build"),
//	    work.WithWorkers(16),
//	    work.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	root := rt.NewRoot()
//	compile := rt.NewWork("compile", compileFn)
//	test := rt.NewWork("test", testFn)
//	work.WireAny([]*work.Work{root}, []*work.Work{compile})
//	work.WireAll([]*work.Work{compile}, []*work.Work{test})
//
//	root.Start()
//	test.Wait()
type Runtime struct {
	run     string
	exec    Executor
	emitter emit.Emitter
	metrics *PrometheusMetrics

	// pool is non-nil when the runtime owns its bounded pool and is
	// responsible for closing it.
	pool *Pool

	seq atomic.Int64
}

// DefaultWorkers is the pool size used when WithWorkers is not specified.
const DefaultWorkers = 8

// NewRuntime creates a Runtime configured by the given options.
//
// Defaults: a bounded pool of DefaultWorkers workers, no event emission,
// no metrics, run label "default". Returns an error if an option is
// invalid (for example a negative worker count).
func NewRuntime(opts ...Option) (*Runtime, error) {
	cfg := runtimeConfig{
		run:     "default",
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	rt := &Runtime{
		run:     cfg.run,
		emitter: cfg.emitter,
		metrics: cfg.metrics,
	}
	if cfg.exec != nil {
		rt.exec = cfg.exec
	} else {
		rt.pool = NewPool(cfg.workers)
		rt.pool.metrics = cfg.metrics
		rt.exec = rt.pool
	}
	return rt, nil
}

// Run returns the runtime's run label, attached to every emitted event.
func (r *Runtime) Run() string { return r.run }

// NewWork constructs a node in state Created bound to this runtime.
func (r *Runtime) NewWork(name string, fn WorkerFunc) *Work {
	w := &Work{
		name:   name,
		worker: fn,
		rt:     r,
	}
	w.done.Store(newSignal())
	return w
}

// NewRoot constructs a node whose worker immediately reports success.
//
// A root is a synthetic always-true entry point: wire it as the parent of
// the graph's first real nodes, then call Start on it to set the whole
// graph in motion.
func (r *Runtime) NewRoot() *Work {
	return r.NewWork("root", func(ctl *Control) {
		ctl.Completed()
	})
}

// Close shuts down the runtime's owned pool, if any. In-flight callbacks
// finish; queued work that has not started yet is executed before the
// workers exit. Close is a no-op for runtimes using a custom Executor.
func (r *Runtime) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func (r *Runtime) execute(fn func()) {
	r.exec.Execute(fn)
}

func (r *Runtime) emitEvent(node, msg string, meta map[string]interface{}) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(emit.Event{
		Run:  r.run,
		Seq:  r.seq.Add(1),
		Node: node,
		Msg:  msg,
		Meta: meta,
	})
}

func (r *Runtime) workTriggered(node string) {
	if r.metrics != nil {
		r.metrics.RecordTrigger(node)
	}
}

func (r *Runtime) workStarted(node string) {
	if r.metrics != nil {
		r.metrics.WorkStarted()
	}
}

func (r *Runtime) workFinished(node string, outcome State, d time.Duration) {
	if r.metrics != nil {
		r.metrics.WorkFinished(node, outcome.String(), d)
	}
}

var (
	defaultRT     *Runtime
	defaultRTOnce sync.Once
)

// defaultRuntime backs the package-level New. It spawns one goroutine per
// activation — the drop-in behavior for standalone nodes — and emits
// nothing. Graphs that want a bounded pool or observability create their
// own Runtime.
func defaultRuntime() *Runtime {
	defaultRTOnce.Do(func() {
		defaultRT = &Runtime{
			run:  "default",
			exec: GoExecutor{},
		}
	})
	return defaultRT
}
