package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/store"
)

type jobRecord struct {
	job      domain.Job
	messages []domain.JobMessage
}

// JobStore is a mutex-guarded in-memory store.JobStore.
type JobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*jobRecord
	now  func() time.Time
}

// Ensure JobStore implements store.JobStore interface
var _ store.JobStore = (*JobStore)(nil)

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[uuid.UUID]*jobRecord),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create implements store.JobStore.Create.
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("%w: job %s", store.ErrDuplicate, job.ID)
	}
	s.jobs[job.ID] = &jobRecord{job: cloneJob(*job)}
	return nil
}

// GetByID implements store.JobStore.GetByID.
func (s *JobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	job := cloneJob(rec.job)
	return &job, nil
}

// MarkRunning implements store.JobStore.MarkRunning.
func (s *JobStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	if rec.job.Status != domain.JobStatusPending {
		return store.ErrJobFinished
	}
	rec.job.Status = domain.JobStatusRunning
	rec.job.UpdatedAt = s.now()
	return nil
}

// AppendMessage implements store.JobStore.AppendMessage.
func (s *JobStore) AppendMessage(ctx context.Context, id uuid.UUID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}

	now := s.now()
	rec.messages = append(rec.messages, domain.JobMessage{
		JobID:       id,
		Seq:         len(rec.messages) + 1,
		Description: description,
		CreatedAt:   now,
	})
	rec.job.LatestDescription = description
	rec.job.UpdatedAt = now
	return nil
}

// TakeMessages implements store.JobStore.TakeMessages.
func (s *JobStore) TakeMessages(ctx context.Context, id uuid.UUID) ([]domain.JobMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}

	pending := rec.messages[rec.job.DeliveredSeq:]
	out := make([]domain.JobMessage, len(pending))
	copy(out, pending)
	rec.job.DeliveredSeq = len(rec.messages)
	return out, nil
}

// Finish implements store.JobStore.Finish.
func (s *JobStore) Finish(
	ctx context.Context,
	id uuid.UUID,
	outcome store.JobOutcome,
) (*domain.Job, error) {
	if !outcome.Status.Terminal() {
		return nil, fmt.Errorf("%w: %q is not a terminal status", store.ErrInvalidEntity, outcome.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	if rec.job.Status.Terminal() {
		return nil, store.ErrJobFinished
	}

	s.finishLocked(rec, outcome)
	job := cloneJob(rec.job)
	return &job, nil
}

// SetEmailAlert implements store.JobStore.SetEmailAlert.
func (s *JobStore) SetEmailAlert(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	rec.job.EmailAlert = true
	rec.job.UpdatedAt = s.now()

	job := cloneJob(rec.job)
	return &job, nil
}

// FailUnfinished implements store.JobStore.FailUnfinished.
func (s *JobStore) FailUnfinished(ctx context.Context, message string) ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var failed []*domain.Job
	for _, rec := range s.jobs {
		if rec.job.Status.Terminal() {
			continue
		}
		s.finishLocked(rec, store.JobOutcome{
			Status:       domain.JobStatusFailed,
			ErrorMessage: message,
		})
		job := cloneJob(rec.job)
		failed = append(failed, &job)
	}
	return failed, nil
}

func (s *JobStore) finishLocked(rec *jobRecord, outcome store.JobOutcome) {
	now := s.now()
	rec.job.Status = outcome.Status
	rec.job.Result = cloneRaw(outcome.Result)
	rec.job.ErrorMessage = outcome.ErrorMessage
	rec.job.UpdatedAt = now
	rec.job.FinishedAt = &now
}

func cloneJob(j domain.Job) domain.Job {
	j.Params = cloneRaw(j.Params)
	j.Result = cloneRaw(j.Result)
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		j.FinishedAt = &t
	}
	return j
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	out := make(json.RawMessage, len(r))
	copy(out, r)
	return out
}
