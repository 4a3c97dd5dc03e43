// Package store persists graph execution history.
//
// A Journal records the stream of node lifecycle transitions the runtime
// emits — which node was triggered, started, completed, failed, or reset,
// and when. Journals answer the post-mortem questions a purely in-memory
// activator cannot: what ran, in what order, and how each run ended.
//
// Backends:
//   - MemJournal: in-memory, for tests and short-lived graphs
//   - SQLiteJournal: single-file database, zero setup
//   - MySQLJournal: shared relational database for production audit trails
//
// JournalEmitter adapts a Journal to the emit.Emitter interface, so
// persistence plugs into the runtime the same way logging and tracing do.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/treework-go/work/emit"
)

// ErrNotFound is returned when a requested run or node has no recorded
// transitions.
var ErrNotFound = errors.New("not found")

// Transition is one recorded node lifecycle event.
type Transition struct {
	// Run labels the runtime execution this transition belongs to.
	Run string

	// Seq is the runtime-wide sequence number; transitions with lower Seq
	// happened earlier within the run.
	Seq int64

	// Node names the node that transitioned.
	Node string

	// Msg is the lifecycle message (emit.MsgTriggered, emit.MsgStarted,
	// emit.MsgCompleted, emit.MsgFailed, emit.MsgReset).
	Msg string

	// Meta carries the event's structured metadata, if any.
	Meta map[string]interface{}

	// At is the wall-clock time the transition was recorded.
	At time.Time
}

// Journal persists node lifecycle transitions.
//
// Implementations must be safe for concurrent Append calls: concurrently
// finishing nodes record their transitions from different goroutines.
type Journal interface {
	// Append records one transition.
	Append(ctx context.Context, t Transition) error

	// History returns every transition recorded for a run, ordered by Seq.
	// Returns ErrNotFound if the run has no transitions.
	History(ctx context.Context, run string) ([]Transition, error)

	// Latest returns the most recent transition recorded for a node within
	// a run. Returns ErrNotFound if none exists.
	Latest(ctx context.Context, run, node string) (Transition, error)

	// Runs lists the run labels with recorded history.
	Runs(ctx context.Context) ([]string, error)

	// Close releases any resources held by the journal.
	Close() error
}

// JournalEmitter adapts a Journal to emit.Emitter, recording every runtime
// event as a transition.
//
// Append errors do not propagate into graph execution (an emitter must not
// stall or crash the graph); the most recent error is retained and
// available via Err.
//
// Example:
//
//	journal, _ := store.NewSQLiteJournal("./runs.db")
//	defer journal.Close()
//
//	rt, _ := work.NewRuntime(
//	    work.WithRun("nightly"),
//	    work.WithEmitter(store.NewJournalEmitter(journal)),
//	)
type JournalEmitter struct {
	journal Journal

	mu      sync.Mutex
	lastErr error
}

// NewJournalEmitter creates an emitter persisting events to the journal.
func NewJournalEmitter(journal Journal) *JournalEmitter {
	return &JournalEmitter{journal: journal}
}

// Emit records the event as a transition. Failures are swallowed and
// retained for Err.
func (e *JournalEmitter) Emit(event emit.Event) {
	t := Transition{
		Run:  event.Run,
		Seq:  event.Seq,
		Node: event.Node,
		Msg:  event.Msg,
		Meta: event.Meta,
		At:   time.Now(),
	}
	if err := e.journal.Append(context.Background(), t); err != nil {
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
	}
}

// Err returns the most recent Append failure, or nil if every event has
// been recorded successfully.
func (e *JournalEmitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
