package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// It captures every event and provides query capabilities for execution
// history analysis. Events are organized by run label for efficient
// retrieval and filtering.
//
// Use cases:
//   - Tests asserting on the exact lifecycle sequence of a graph
//   - Development and debugging
//   - Post-execution analysis
//
// Warning: all events stay in memory. For long-lived processes or high
// event volume, use a persistent journal or clear runs periodically.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	rt, _ := work.NewRuntime(work.WithRun("run-001"), work.WithEmitter(emitter))
//
//	// ... run the graph ...
//
//	history := emitter.History("run-001")
//	failures := emitter.HistoryWithFilter("run-001", emit.HistoryFilter{Msg: emit.MsgFailed})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // run -> events
}

// HistoryFilter specifies criteria for filtering captured events.
//
// All fields are optional; set fields combine with AND logic.
type HistoryFilter struct {
	Node   string // filter by node name (empty = no filter)
	Msg    string // filter by message (empty = no filter)
	MinSeq *int64 // minimum sequence number (nil = no filter)
	MaxSeq *int64 // maximum sequence number (nil = no filter)
}

// NewBufferedEmitter creates a BufferedEmitter. Safe for concurrent use.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer, keyed by its run label.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.Run] = append(b.events[event.Run], event)
}

// History returns all captured events for a run, in emission order.
// The returned slice is a copy; mutating it does not affect the buffer.
func (b *BufferedEmitter) History(run string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[run]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// HistoryWithFilter returns the captured events for a run that match the
// filter, in emission order.
func (b *BufferedEmitter) HistoryWithFilter(run string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, ev := range b.events[run] {
		if filter.Node != "" && ev.Node != filter.Node {
			continue
		}
		if filter.Msg != "" && ev.Msg != filter.Msg {
			continue
		}
		if filter.MinSeq != nil && ev.Seq < *filter.MinSeq {
			continue
		}
		if filter.MaxSeq != nil && ev.Seq > *filter.MaxSeq {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Runs returns the run labels that have captured events.
func (b *BufferedEmitter) Runs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	runs := make([]string, 0, len(b.events))
	for run := range b.events {
		runs = append(runs, run)
	}
	return runs
}

// Clear discards the captured events for one run.
func (b *BufferedEmitter) Clear(run string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, run)
}

// ClearAll discards every captured event.
func (b *BufferedEmitter) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(map[string][]Event)
}
