package emit

// Fanout implements Emitter by forwarding every event to each of a set of
// backends in order.
//
// Typical use is pairing a human-readable log with a persistent journal:
//
//	emitter := emit.NewFanout(
//	    emit.NewLogEmitter(os.Stdout, false),
//	    store.NewJournalEmitter(journal),
//	)
type Fanout struct {
	emitters []Emitter
}

// NewFanout creates a Fanout over the given emitters. Nil entries are
// skipped.
func NewFanout(emitters ...Emitter) *Fanout {
	out := make([]Emitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return &Fanout{emitters: out}
}

// Emit forwards the event to every backend, in the order they were given.
func (f *Fanout) Emit(event Event) {
	for _, e := range f.emitters {
		e.Emit(event)
	}
}
