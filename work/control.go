package work

import "sync/atomic"

// Control is the single-use handle a worker callback uses to report its
// node's outcome.
//
// A fresh Control is bound to the node for each activation. The callback
// must call exactly one of Completed or Failed exactly once — before
// returning, or before any goroutine it started exits. The handle carries
// no data payload, only the outcome.
//
// Single use is enforced by construction: the second resolution, through
// either method, panics with a *ContractError. Resolving never is a silent
// liveness failure the package cannot detect; see WorkerFunc.
type Control struct {
	w    *Work
	used atomic.Bool
}

func newControl(w *Work) *Control {
	return &Control{w: w}
}

// Completed reports that the node's work succeeded. The node reaches
// StateCompleted and its children are triggered in registration order.
func (c *Control) Completed() {
	c.resolve(StateCompleted)
}

// Failed reports that the node's work failed. The node reaches StateFailed;
// none of its children are triggered by this outcome, under either policy.
func (c *Control) Failed() {
	c.resolve(StateFailed)
}

func (c *Control) resolve(outcome State) {
	if !c.used.CompareAndSwap(false, true) {
		panic(&ContractError{
			Node:    c.w.name,
			Message: "control resolved more than once",
		})
	}
	c.w.finish(outcome)
}
