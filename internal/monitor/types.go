package monitor

import (
	"context"
	"encoding/json"
)

// Handle identifies a server-side asynchronous job.
type Handle string

// StatusUpdate is a single progress record reported by the server.
type StatusUpdate struct {
	// Description is the human readable progress message
	Description string `json:"description"`

	// Done is set once the job has finished running
	Done bool `json:"done"`

	// Failed is set when the job ended in error. It takes precedence over Done.
	Failed bool `json:"failed"`

	// Message optionally carries an explicit failure message
	Message string `json:"message,omitempty"`
}

// State is the lifecycle state of a Monitor.
type State int

// Monitor states. Completed, Failed and Cancelled are terminal; Detached ends
// monitoring without reporting a terminal outcome.
const (
	StateIdle State = iota
	StatePolling
	StateCompleted
	StateFailed
	StateCancelled
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the job's lifecycle.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Outcome describes how monitoring ended.
type Outcome struct {
	State State

	// Payload is the job result, set for StateCompleted
	Payload json.RawMessage

	// Message is the failure message, set for StateFailed
	Message string

	// Confirmed reports whether the server confirmed a cancellation
	Confirmed bool

	// Err is nil for a completed job or a confirmed cancellation
	Err error
}

// Snapshot is a point-in-time copy of a monitor's observable state.
type Snapshot struct {
	Handle          Handle
	State           State
	StatusText      string
	Log             []string
	Polls           int
	TransportErrors int
}

// StatusService is the server collaborator a Monitor polls.
type StatusService interface {
	// PollStatus returns the progress updates recorded since the previous poll.
	PollStatus(ctx context.Context, handle Handle) ([]StatusUpdate, error)

	// FetchResult returns the payload of a finished job. It returns
	// ErrResultNotReady while the result cannot be read yet and a
	// *JobFailedError when the job failed.
	FetchResult(ctx context.Context, handle Handle) (json.RawMessage, error)

	// RequestCancel asks the server to stop the job. It returns false when
	// the job could not be cancelled, for example because it already ended.
	RequestCancel(ctx context.Context, handle Handle) (bool, error)

	// AddEmailAlert asks the server to notify the job owner on completion.
	AddEmailAlert(ctx context.Context, handle Handle) error
}
