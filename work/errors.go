package work

import "errors"

// ErrPoolClosed is returned by Pool.Submit after Close has been called.
// Work handed to a closed pool is not executed.
var ErrPoolClosed = errors.New("worker pool is closed")

// ContractError reports a violation of the outcome-reporting contract:
// a worker callback resolved its Control more than once, or a completion
// signal fired twice. These are programming errors in the caller's worker,
// not recoverable conditions, so they surface as panics carrying a
// *ContractError value rather than silently corrupting node state.
type ContractError struct {
	// Node names the node whose contract was violated.
	Node string

	// Message describes the violation.
	Message string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Node != "" {
		return "work " + e.Node + ": " + e.Message
	}
	return e.Message
}
