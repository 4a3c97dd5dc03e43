// Package work provides a dependency-graph task activator.
//
// Independent units of work are modeled as nodes in a directed acyclic
// graph. A node begins executing only when its activation policy over its
// parents is satisfied: PolicyAny starts the node as soon as any parent
// completes successfully, PolicyAll waits for every registered parent to
// complete successfully. Failed parents never count toward either policy.
//
// The package is built around four pieces:
//   - Work: the node state machine (Created → Running → Completed/Failed)
//   - Control: the single-use handle a worker uses to report its outcome
//   - WireAll / WireAny: Cartesian-product graph wiring helpers
//   - Runtime: shared execution pool, observability events, and metrics
//
// Graphs must be fully wired before the first trigger; the structure is
// not safe to mutate once execution has begun.
package work

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/treework-go/work/emit"
)

// State is the lifecycle state of a Work node.
//
// Transitions are strictly monotonic:
//
//	Created → Running → Completed
//	                  → Failed
//
// Terminal states never change. A node re-enters Created only through an
// explicit Reset.
type State int32

const (
	// StateCreated is the initial state: wired but not yet activated.
	StateCreated State = iota

	// StateRunning means the worker callback has been started.
	// A node enters Running at most once per Reset cycle.
	StateRunning

	// StateCompleted is the terminal success state.
	StateCompleted

	// StateFailed is the terminal failure state. Children are never
	// triggered by a failed parent, under either policy.
	StateFailed
)

// String returns a human-readable state name for logs and events.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is Completed or Failed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Policy is the rule by which a node's parents gate its activation.
//
// The policy is a property of the child node, not of an edge. A child that
// must satisfy PolicyAll across some parents and PolicyAny across others is
// not expressible; the last wiring call wins. This is an explicit
// limitation, not an oversight — see WireAll and WireAny.
type Policy int32

const (
	// PolicyAny activates the node as soon as any one parent completes
	// successfully. This is the default for newly constructed nodes.
	PolicyAny Policy = iota

	// PolicyAll activates the node only after every registered parent has
	// completed successfully.
	PolicyAll
)

// String returns a human-readable policy name.
func (p Policy) String() string {
	switch p {
	case PolicyAny:
		return "any"
	case PolicyAll:
		return "all"
	default:
		return "unknown"
	}
}

// WorkerFunc is the callback that performs a node's actual work.
//
// The callback receives a Control bound to its node and must resolve it
// exactly once — by calling ctl.Completed or ctl.Failed — before returning,
// or before any goroutine it started exits. Resolving twice panics with a
// *ContractError. Never resolving leaves every descendant unactivated and
// every waiter blocked forever; no timeout detects it.
type WorkerFunc func(ctl *Control)

// Work is a node in the dependency graph.
//
// A Work node holds its state, its activation policy, the count of parents
// not yet completed, its ordered child list, and the worker callback. Nodes
// are identified by reference: two nodes are the same node only if they are
// the same pointer.
//
// Concurrency model: two parents finishing at the same time may call
// Trigger on a shared child from different goroutines. The remaining-parent
// count therefore decrements through an atomic compare-and-swap loop, and
// the Created→Running transition is guarded by an atomic compare-and-swap,
// so exactly one of the racing parents starts the child.
//
// Wiring (RegisterChild, SetPolicy) must finish before the first trigger;
// it is not synchronized against execution.
type Work struct {
	name   string
	worker WorkerFunc
	rt     *Runtime

	state  atomic.Int32
	policy atomic.Int32

	// totalParents is the number of registered parent edges; remaining is
	// the number of parents that have not yet completed successfully.
	// remaining only decreases, only while the node is Created.
	totalParents atomic.Int32
	remaining    atomic.Int32

	// mu guards children and the done-signal swap performed by Reset.
	mu       sync.Mutex
	children []*Work
	done     atomic.Pointer[signal]

	startedAt time.Time
}

// New constructs a node in state Created with the given worker callback,
// using the package's default runtime (one goroutine per activation, no
// event emission). Use Runtime.NewWork to share a bounded pool, emitter,
// and metrics across nodes.
//
// The name identifies the node in events, metrics, and contract panics.
func New(name string, fn WorkerFunc) *Work {
	return defaultRuntime().NewWork(name, fn)
}

// Name returns the node's identifier.
func (w *Work) Name() string { return w.name }

// State returns the node's current lifecycle state. Safe for concurrent use.
func (w *Work) State() State { return State(w.state.Load()) }

// Policy returns the node's current activation policy.
func (w *Work) Policy() Policy { return Policy(w.policy.Load()) }

// TotalParents returns the number of parent edges registered on this node.
func (w *Work) TotalParents() int { return int(w.totalParents.Load()) }

// RemainingParents returns the number of parents that have not yet
// completed successfully.
func (w *Work) RemainingParents() int { return int(w.remaining.Load()) }

// SetPolicy sets the node's activation policy.
//
// The policy applies to all of the node's parents; the last write before
// execution starts wins. Do not call once any parent may trigger the node.
func (w *Work) SetPolicy(p Policy) {
	w.policy.Store(int32(p))
}

// RegisterChild appends child to this node's child list and records one
// more parent edge on the child.
//
// Children are triggered in registration order when this node finishes. A
// child may be registered under multiple parents. Call only during graph
// construction, never concurrently with execution.
func (w *Work) RegisterChild(child *Work) {
	w.mu.Lock()
	w.children = append(w.children, child)
	w.mu.Unlock()

	child.totalParents.Add(1)
	child.remaining.Add(1)
}

// Start triggers the node directly, as if a parent had just completed.
// It is the entry point for root nodes: wire the graph, then Start the root.
func (w *Work) Start() {
	w.Trigger(StateCompleted)
}

// Trigger notifies the node that a parent finished with the given outcome.
//
// Trigger is a no-op unless the node is still Created. A parent outcome
// other than StateCompleted never counts toward either policy: PolicyAny
// children wait for another parent, PolicyAll children can never satisfy
// their remaining count and stay Created.
//
// On a qualifying call the remaining-parent count is decremented (floored
// at zero) and the run condition evaluated: PolicyAny runs unconditionally,
// PolicyAll runs when the count reaches zero. The winning call performs the
// Created→Running transition via compare-and-swap and hands the worker
// callback to the runtime's executor; racing triggers from concurrently
// finishing parents lose the swap and return.
func (w *Work) Trigger(parent State) {
	if w.State() != StateCreated {
		return
	}
	if parent != StateCompleted {
		return
	}

	w.rt.emitEvent(w.name, emit.MsgTriggered, map[string]interface{}{
		"parent_outcome": parent.String(),
	})
	w.rt.workTriggered(w.name)

	// Decrement remaining with a floor at zero. A plain Add(-1) could
	// underflow when an over-triggered PolicyAny node receives more
	// completions than it has parents (a root has none at all).
	for {
		n := w.remaining.Load()
		if n == 0 {
			break
		}
		if w.remaining.CompareAndSwap(n, n-1) {
			break
		}
	}

	run := false
	switch w.Policy() {
	case PolicyAny:
		run = true
	case PolicyAll:
		run = w.remaining.Load() == 0
	}
	if !run {
		return
	}

	// Exactly one trigger wins the transition, no matter how many parents
	// finish concurrently.
	if !w.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return
	}

	w.startedAt = time.Now()
	w.rt.emitEvent(w.name, emit.MsgStarted, nil)
	w.rt.workStarted(w.name)
	w.rt.execute(w.run)
}

// run invokes the worker callback with a fresh single-use Control.
// The callback reports its outcome through the control, which calls finish.
func (w *Work) run() {
	w.worker(newControl(w))
}

// finish records the node's terminal outcome. It is reached exactly once
// per Reset cycle, through the node's Control.
//
// Order matters and is part of the contract: the terminal state is stored
// first, the completion signal fires second (waking every Wait caller), and
// the children are triggered last — synchronously, on the goroutine that
// resolved the control, in registration order. A deep chain therefore
// cascades through nested executor handoffs rather than recursion depth.
func (w *Work) finish(outcome State) {
	w.state.Store(int32(outcome))

	msg := emit.MsgCompleted
	if outcome == StateFailed {
		msg = emit.MsgFailed
	}
	w.rt.emitEvent(w.name, msg, nil)
	w.rt.workFinished(w.name, outcome, time.Since(w.startedAt))

	w.done.Load().fire(w.name)

	w.mu.Lock()
	children := w.children
	w.mu.Unlock()
	for _, child := range children {
		if child != nil {
			child.Trigger(outcome)
		}
	}
}

// Reset returns the node to Created for another run.
//
// If the node is Running, Reset blocks until the in-flight execution
// finishes. The completion signal is recreated and the remaining-parent
// count restored to the total. With deep=true every reachable child is
// reset recursively; a child shared by several parents is visited once per
// parent, which is harmless since resetting a Created node is idempotent.
//
// Reset is not safe to call while any ancestor might still trigger this
// node.
func (w *Work) Reset(deep bool) {
	if w.State() == StateRunning {
		w.Wait()
	}

	w.mu.Lock()
	w.done.Store(newSignal())
	w.remaining.Store(w.totalParents.Load())
	w.state.Store(int32(StateCreated))
	children := w.children
	w.mu.Unlock()

	w.rt.emitEvent(w.name, emit.MsgReset, nil)

	if deep {
		for _, child := range children {
			if child != nil {
				child.Reset(true)
			}
		}
	}
}

// Wait blocks the caller until the node reaches a terminal state.
//
// Wait may be called any number of times, before or after completion;
// calls on an already-finished node return promptly. It never busy-polls.
// A node whose worker never reports an outcome blocks Wait forever.
func (w *Work) Wait() {
	w.done.Load().wait()
}

// Done reports whether the node has reached a terminal state, without
// blocking.
func (w *Work) Done() bool {
	return w.done.Load().ready()
}
