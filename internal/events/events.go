package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobEventType identifies the terminal transition a JobEvent reports.
type JobEventType string

// Job event types.
const (
	JobCompleted JobEventType = "completed"
	JobFailed    JobEventType = "failed"
	JobCancelled JobEventType = "cancelled"
)

// JobEvent reports that a job reached a terminal state.
type JobEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	JobID   uuid.UUID    `json:"job_id"`
	OwnerID uuid.UUID    `json:"owner_id"`
	JobType string       `json:"job_type"`
	Type    JobEventType `json:"type"`

	// Message carries the failure message for failed jobs
	Message string `json:"message,omitempty"`

	// EmailAlert is set when the owner asked to be notified
	EmailAlert bool `json:"email_alert"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewJobEvent creates a JobEvent with a fresh ID stamped with the current time.
func NewJobEvent(eventType JobEventType, jobID, ownerID uuid.UUID, jobType string) *JobEvent {
	return &JobEvent{
		ID:         uuid.New(),
		JobID:      jobID,
		OwnerID:    ownerID,
		JobType:    jobType,
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *JobEvent) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event *JobEvent) error

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *JobEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *JobEvent) error
}
