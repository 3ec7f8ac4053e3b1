package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/domain"
)

// JobOutcome describes the terminal transition applied by JobStore.Finish.
type JobOutcome struct {
	// Status must be a terminal status
	Status domain.JobStatus

	// Result is stored for completed jobs
	Result json.RawMessage

	// ErrorMessage is stored for failed and cancelled jobs
	ErrorMessage string
}

// JobStore defines the interface for job data persistence.
// Version: 1.0
type JobStore interface {
	// Create saves a new job to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Job if data is invalid.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// MarkRunning moves a pending job to running.
	// Returns ErrJobFinished if the job is no longer pending, and
	// ErrJobNotFound if it does not exist.
	MarkRunning(ctx context.Context, id uuid.UUID) error

	// AppendMessage records a progress description for the job and makes it
	// the job's latest description.
	AppendMessage(ctx context.Context, id uuid.UUID, description string) error

	// TakeMessages returns the messages not yet delivered, in order, and
	// marks them delivered. Each message is returned at most once.
	TakeMessages(ctx context.Context, id uuid.UUID) ([]domain.JobMessage, error)

	// Finish applies a terminal outcome to a pending or running job and
	// returns the updated job. Returns ErrJobFinished if the job had
	// already finished.
	Finish(ctx context.Context, id uuid.UUID, outcome JobOutcome) (*domain.Job, error)

	// SetEmailAlert flags the job for an owner notification and returns the
	// updated job.
	SetEmailAlert(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// FailUnfinished fails every pending or running job with message and
	// returns the jobs it changed.
	FailUnfinished(ctx context.Context, message string) ([]*domain.Job, error)
}
