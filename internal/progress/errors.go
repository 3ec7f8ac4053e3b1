package progress

import (
	"errors"
	"fmt"
)

// Service errors. The API layer maps these to HTTP status codes.
var (
	// ErrJobNotFound indicates the job does not exist or belongs to another owner.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidJob indicates an unknown job type or unacceptable parameters.
	ErrInvalidJob = errors.New("invalid job request")

	// ErrBusy indicates the job queue cannot accept more work.
	ErrBusy = errors.New("job queue is full")

	// ErrResultNotReady indicates the job has not finished yet.
	ErrResultNotReady = errors.New("job result not ready")

	// ErrJobCancelled indicates the job was cancelled and has no result.
	ErrJobCancelled = errors.New("job was cancelled")
)

// JobFailedError is returned by Result for a job that ended in failure.
type JobFailedError struct {
	Message string
}

func (e *JobFailedError) Error() string {
	return "job failed: " + e.Message
}

// ServiceError wraps unexpected errors from the store or runner with the
// operation that failed.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError for operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
