package work

import "sync/atomic"

// signal is the one-shot completion primitive behind Work.Wait.
//
// It has a single writer (the node's finish path) and any number of
// readers. Firing closes a channel, so waiters that arrive after the fact
// observe the already-signaled state without consuming anything; Wait is
// naturally re-callable. Firing twice is a protocol violation and panics
// rather than corrupting the channel.
type signal struct {
	ch    chan struct{}
	fired atomic.Bool
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

// fire signals completion. The second fire for the same signal panics with
// a *ContractError naming the offending node.
func (s *signal) fire(node string) {
	if !s.fired.CompareAndSwap(false, true) {
		panic(&ContractError{
			Node:    node,
			Message: "outcome reported more than once",
		})
	}
	close(s.ch)
}

// wait blocks until fire has been called. Safe to call repeatedly and from
// multiple goroutines.
func (s *signal) wait() {
	<-s.ch
}

// ready is the non-blocking readiness check.
func (s *signal) ready() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
