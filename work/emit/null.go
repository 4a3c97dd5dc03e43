package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use it to disable event emission without changing wiring, or as the
// baseline when measuring observability overhead.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter. Safe for concurrent use and has
// zero overhead.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(event Event) {
}
