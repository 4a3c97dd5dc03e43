package store

import (
	"context"
	"sync"
)

// MemJournal is an in-memory implementation of Journal.
//
// Designed for:
//   - Testing and development
//   - Short-lived graphs where persistence isn't required
//
// MemJournal is thread-safe and supports concurrent appends.
//
// Limitations:
//   - History is lost when the process terminates
//   - Memory usage grows with every transition
//
// For persistence use SQLiteJournal or MySQLJournal.
type MemJournal struct {
	mu          sync.RWMutex
	transitions map[string][]Transition // run -> ordered transitions
}

// NewMemJournal creates a new in-memory journal.
func NewMemJournal() *MemJournal {
	return &MemJournal{
		transitions: make(map[string][]Transition),
	}
}

// Append records one transition. Transitions are stored in arrival order,
// which matches Seq order for a single runtime.
func (m *MemJournal) Append(_ context.Context, t Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transitions[t.Run] = append(m.transitions[t.Run], t)
	return nil
}

// History returns a copy of the run's transitions in recorded order.
func (m *MemJournal) History(_ context.Context, run string) ([]Transition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	transitions, ok := m.transitions[run]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out, nil
}

// Latest returns the transition with the highest Seq for the node within
// the run.
func (m *MemJournal) Latest(_ context.Context, run, node string) (Transition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest Transition
	found := false
	for _, t := range m.transitions[run] {
		if t.Node != node {
			continue
		}
		if !found || t.Seq > latest.Seq {
			latest = t
			found = true
		}
	}
	if !found {
		return Transition{}, ErrNotFound
	}
	return latest, nil
}

// Runs lists the run labels with recorded history.
func (m *MemJournal) Runs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]string, 0, len(m.transitions))
	for run := range m.transitions {
		runs = append(runs, run)
	}
	return runs, nil
}

// Clear discards the recorded history for one run.
func (m *MemJournal) Clear(run string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transitions, run)
}

// Close is a no-op for the in-memory journal.
func (m *MemJournal) Close() error {
	return nil
}
