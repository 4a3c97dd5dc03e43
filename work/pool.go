package work

import "sync"

// Executor starts a node's worker callback on some execution context.
//
// The two built-in implementations are Pool (bounded workers with a ready
// queue) and GoExecutor (one goroutine per activation). Custom executors
// can impose their own scheduling as long as Execute never runs fn
// synchronously on the calling goroutine: activation must be asynchronous
// so that a finishing parent is not re-entered by its own child's worker.
type Executor interface {
	Execute(fn func())
}

// GoExecutor starts one goroutine per activation, with no bound on the
// number of concurrently running nodes — the original thread-per-node
// model. Use it when worker callbacks may block on sibling nodes, where a
// bounded pool could starve itself.
type GoExecutor struct{}

// Execute runs fn on a new goroutine.
func (GoExecutor) Execute(fn func()) {
	go fn()
}

// Pool is a bounded worker pool with a FIFO ready queue.
//
// Activating a node enqueues its callback instead of spawning a goroutine;
// a fixed set of workers drains the queue. The worker count is the
// system's backpressure point: no matter how wide the graph fans out, at
// most that many callbacks run at once.
//
// The ready queue itself is unbounded. Completion propagation runs on a
// worker goroutine (a finishing node triggers its children synchronously),
// so a bounded queue could deadlock the pool against itself with every
// worker blocked on an enqueue. Queue growth is bounded in practice by the
// number of nodes in the graph.
//
// Workers start lazily on first submit. All methods are safe for
// concurrent use.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	workers int
	started bool
	closed  bool
	wg      sync.WaitGroup

	metrics *PrometheusMetrics
}

// NewPool creates a pool with the given number of workers. A non-positive
// count falls back to DefaultWorkers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := &Pool{workers: workers}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Submit enqueues fn for execution by the pool's workers. It never blocks.
// Returns ErrPoolClosed after Close; the function is not executed.
func (p *Pool) Submit(fn func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	if !p.started {
		p.started = true
		p.wg.Add(p.workers)
		for i := 0; i < p.workers; i++ {
			go p.worker()
		}
	}
	p.queue = append(p.queue, fn)
	depth := len(p.queue)
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.SetQueueDepth(depth)
	}
	p.cond.Signal()
	return nil
}

// Execute implements Executor. Work submitted after Close is dropped.
func (p *Pool) Execute(fn func()) {
	_ = p.Submit(fn)
}

// Len returns the number of callbacks waiting in the ready queue.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting new work and waits for the workers to drain the
// queue and exit. Calling Close twice is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	p.cond.Broadcast()
	if started {
		p.wg.Wait()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			return
		}
		fn := p.queue[0]
		p.queue = p.queue[1:]
		depth := len(p.queue)
		p.mu.Unlock()

		if p.metrics != nil {
			p.metrics.SetQueueDepth(depth)
		}
		fn()
	}
}
