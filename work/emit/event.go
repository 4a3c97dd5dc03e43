package emit

// Lifecycle event messages emitted by the work runtime.
const (
	// MsgTriggered is emitted for every qualifying trigger call — a parent
	// (or the external caller, for roots) reported a successful completion
	// to the node.
	MsgTriggered = "work_triggered"

	// MsgStarted is emitted when a node wins its Created→Running
	// transition and its callback is handed to the executor.
	MsgStarted = "work_started"

	// MsgCompleted is emitted when a node's callback reports success.
	MsgCompleted = "work_completed"

	// MsgFailed is emitted when a node's callback reports failure.
	MsgFailed = "work_failed"

	// MsgReset is emitted when a node is returned to Created for re-use.
	MsgReset = "work_reset"
)

// Event represents an observability event emitted during graph execution.
//
// Events trace the activation machinery itself — triggers arriving,
// callbacks starting, outcomes landing, nodes being rearmed — not the work
// performed inside callbacks. Emit them to an Emitter which can:
//   - Log to stdout/stderr
//   - Create OpenTelemetry spans
//   - Persist to a transition journal
//   - Buffer in memory for inspection
type Event struct {
	// Run labels the runtime that emitted this event. All nodes created
	// through one runtime share a run label.
	Run string

	// Seq is the runtime-wide monotonic sequence number (1-indexed).
	// Events with a lower Seq were emitted earlier.
	Seq int64

	// Node identifies the node this event concerns.
	Node string

	// Msg is one of the Msg* constants.
	Msg string

	// Meta carries additional structured data specific to this event.
	// Common keys:
	//   - "parent_outcome": outcome of the parent that caused a trigger
	Meta map[string]interface{}
}
