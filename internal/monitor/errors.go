package monitor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle is returned by Start when no task handle is given.
	ErrInvalidHandle = errors.New("invalid task handle")

	// ErrAlreadyStarted is returned by Start on a monitor that was started before.
	ErrAlreadyStarted = errors.New("monitor already started")

	// ErrNotStarted is returned by Detach on a monitor that is still idle.
	ErrNotStarted = errors.New("monitor not started")

	// ErrResultNotReady signals that a finished job's result cannot be read yet.
	ErrResultNotReady = errors.New("job result not ready")

	// ErrCancellationRejected is the outcome error when the server could not
	// cancel the job.
	ErrCancellationRejected = errors.New("job cancellation rejected")

	// ErrDetached is the outcome error after Detach.
	ErrDetached = errors.New("monitor detached")

	// ErrJobUnavailable marks a StatusService error that retrying cannot fix,
	// such as an unknown job or a rejected credential. The monitor fails on
	// the first one instead of counting it as a transport error.
	ErrJobUnavailable = errors.New("job unavailable")
)

// TransportError reports that the status service could not be reached
// repeatedly and the monitor gave up.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("status service unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// JobFailedError is a job failure reported by the server.
type JobFailedError struct {
	Message string
}

func (e *JobFailedError) Error() string {
	return "job failed: " + e.Message
}
