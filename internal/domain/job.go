package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a job.
type JobStatus string

// Possible job status values
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Common validation errors for Job
var (
	ErrEmptyJobID       = errors.New("job ID cannot be empty")
	ErrEmptyJobOwnerID  = errors.New("job owner ID cannot be empty")
	ErrEmptyJobType     = errors.New("job type cannot be empty")
	ErrInvalidJobStatus = errors.New("invalid job status")
	ErrInvalidJobParams = errors.New("job params must be a JSON object")
)

// Job is a unit of server-side work submitted by an owner. The owner polls its
// progress messages and fetches the result once it is finished.
type Job struct {
	ID      uuid.UUID       `json:"id"`
	OwnerID uuid.UUID       `json:"owner_id"`
	Type    string          `json:"type"`
	Params  json.RawMessage `json:"params"`
	Status  JobStatus       `json:"status"`

	// Result is set once the job has completed
	Result json.RawMessage `json:"result,omitempty"`

	// ErrorMessage explains a failed or cancelled job
	ErrorMessage string `json:"error_message,omitempty"`

	// LatestDescription is the most recent progress message
	LatestDescription string `json:"latest_description,omitempty"`

	// DeliveredSeq is the sequence number of the last progress message handed
	// to the owner
	DeliveredSeq int `json:"-"`

	EmailAlert bool       `json:"email_alert"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewJob creates a pending Job owned by ownerID. Empty params become an empty
// JSON object.
// Returns an error if validation fails.
func NewJob(ownerID uuid.UUID, jobType string, params json.RawMessage) (*Job, error) {
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Type:      jobType,
		Params:    params,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
// Returns an error if any field fails validation.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.OwnerID == uuid.Nil {
		return ErrEmptyJobOwnerID
	}

	if j.Type == "" {
		return ErrEmptyJobType
	}

	if !j.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidJobStatus, j.Status)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(j.Params, &obj); err != nil {
		return ErrInvalidJobParams
	}

	return nil
}

// OwnedBy reports whether the job belongs to ownerID.
func (j *Job) OwnedBy(ownerID uuid.UUID) bool {
	return j.OwnerID == ownerID
}

// JobMessage is one progress description published by a running job.
// Seq starts at 1 and increases by one per message.
type JobMessage struct {
	JobID       uuid.UUID `json:"job_id"`
	Seq         int       `json:"seq"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
