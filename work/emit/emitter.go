// Package emit provides pluggable observability for graph execution.
//
// The work runtime emits an Event for every node lifecycle transition;
// an Emitter decides what happens to it. Built-in emitters cover logging
// (LogEmitter), OpenTelemetry spans (OTelEmitter), in-memory capture
// (BufferedEmitter), fan-out to several backends (Fanout), and discarding
// (NullEmitter). The store package adds a persistence-backed emitter.
package emit

// Emitter receives observability events from graph execution.
//
// Implementations should be:
//   - Non-blocking: a slow emitter stalls completion propagation, because
//     events are emitted on the finishing node's goroutine
//   - Thread-safe: concurrently finishing nodes emit concurrently
//   - Resilient: an emitter must not panic; log failures internally
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	Emit(event Event)
}
