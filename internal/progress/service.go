package progress

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/events"
	"github.com/phrazzld/taskwatch/internal/platform/logger"
	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
)

// Failure messages recorded by the service itself.
const (
	MessageCancelled        = "job was cancelled"
	MessageInterruptedStart = "interrupted by server restart"
	MessageInterruptedStop  = "interrupted by server shutdown"
	MessageQueueFull        = "job queue is full"
)

// Update is one progress record returned to a monitoring client.
type Update struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
	Failed      bool   `json:"failed"`
	Message     string `json:"message,omitempty"`
}

// Runner schedules jobs for execution. *task.TaskRunner satisfies it.
type Runner interface {
	Submit(t task.Task) error
	Cancel(id uuid.UUID) bool
}

// JobService defines the operations available to job owners.
// Version: 1.0
type JobService interface {
	// Submit validates and persists a new job, then queues it for execution.
	// Returns ErrInvalidJob for an unknown type or bad parameters and ErrBusy
	// when the queue is full.
	Submit(ctx context.Context, ownerID uuid.UUID, jobType string, params json.RawMessage) (*domain.Job, error)

	// Progress returns the updates recorded since the previous call.
	Progress(ctx context.Context, ownerID, jobID uuid.UUID) ([]Update, error)

	// Result returns the payload of a completed job. Returns
	// ErrResultNotReady, *JobFailedError or ErrJobCancelled otherwise.
	Result(ctx context.Context, ownerID, jobID uuid.UUID) (json.RawMessage, error)

	// Cancel stops the job. It returns false when the job had already
	// finished.
	Cancel(ctx context.Context, ownerID, jobID uuid.UUID) (bool, error)

	// AddEmailAlert asks for the owner to be notified when the job finishes.
	// A job that has already finished triggers the notification immediately.
	AddEmailAlert(ctx context.Context, ownerID, jobID uuid.UUID) error

	// Recover fails the jobs left unfinished by a previous process and
	// returns how many were changed.
	Recover(ctx context.Context) (int, error)
}

// Verify interface compliance at compile time
var _ JobService = (*jobServiceImpl)(nil)

type jobServiceImpl struct {
	jobs     store.JobStore
	runner   Runner
	registry *task.Registry
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewJobService creates a JobService.
func NewJobService(
	jobs store.JobStore,
	runner Runner,
	registry *task.Registry,
	emitter events.EventEmitter,
	logger *slog.Logger,
) JobService {
	if jobs == nil {
		panic("jobs cannot be nil")
	}
	if runner == nil {
		panic("runner cannot be nil")
	}
	if registry == nil {
		panic("registry cannot be nil")
	}
	if emitter == nil {
		panic("emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		jobs:     jobs,
		runner:   runner,
		registry: registry,
		emitter:  emitter,
		logger:   logger.With(slog.String("component", "job_service")),
	}
}

// Submit implements JobService.Submit.
func (s *jobServiceImpl) Submit(
	ctx context.Context,
	ownerID uuid.UUID,
	jobType string,
	params json.RawMessage,
) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.registry.Validate(jobType, params); err != nil {
		log.Debug("rejected job submission",
			slog.String("job_type", jobType),
			slog.String("error", err.Error()))
		return nil, errors.Join(ErrInvalidJob, err)
	}

	job, err := domain.NewJob(ownerID, jobType, params)
	if err != nil {
		return nil, errors.Join(ErrInvalidJob, err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		log.Error("failed to persist job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("submit", "failed to persist job", err)
	}

	if err := s.runner.Submit(&jobTask{job: job, svc: s}); err != nil {
		log.Warn("job rejected by runner",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		s.finish(context.WithoutCancel(ctx), job.ID, store.JobOutcome{
			Status:       domain.JobStatusFailed,
			ErrorMessage: MessageQueueFull,
		})
		if errors.Is(err, task.ErrQueueFull) {
			return nil, ErrBusy
		}
		return nil, NewServiceError("submit", "failed to queue job", err)
	}

	log.Info("job submitted",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type),
		slog.String("owner_id", ownerID.String()))
	return job, nil
}

// Progress implements JobService.Progress.
func (s *jobServiceImpl) Progress(ctx context.Context, ownerID, jobID uuid.UUID) ([]Update, error) {
	job, err := s.getOwned(ctx, ownerID, jobID)
	if err != nil {
		return nil, err
	}

	messages, err := s.jobs.TakeMessages(ctx, jobID)
	if err != nil {
		return nil, s.storeError("progress", "failed to read progress messages", err)
	}

	// Messages are recorded before the job finishes, so a terminal status
	// read after draining them cannot hide undelivered messages.
	if !job.Status.Terminal() {
		if job, err = s.jobs.GetByID(ctx, jobID); err != nil {
			return nil, s.storeError("progress", "failed to reload job", err)
		}
	}

	updates := make([]Update, 0, len(messages)+1)
	for _, m := range messages {
		updates = append(updates, Update{Description: m.Description})
	}

	switch job.Status {
	case domain.JobStatusCompleted:
		updates = append(updates, Update{Done: true})
	case domain.JobStatusFailed:
		updates = append(updates, Update{Failed: true, Message: job.ErrorMessage})
	case domain.JobStatusCancelled:
		updates = append(updates, Update{Failed: true, Message: MessageCancelled})
	default:
		if len(messages) == 0 && job.LatestDescription != "" {
			updates = append(updates, Update{Description: job.LatestDescription})
		}
	}
	return updates, nil
}

// Result implements JobService.Result.
func (s *jobServiceImpl) Result(ctx context.Context, ownerID, jobID uuid.UUID) (json.RawMessage, error) {
	job, err := s.getOwned(ctx, ownerID, jobID)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case domain.JobStatusCompleted:
		if len(job.Result) == 0 {
			return json.RawMessage("null"), nil
		}
		return job.Result, nil
	case domain.JobStatusFailed:
		return nil, &JobFailedError{Message: job.ErrorMessage}
	case domain.JobStatusCancelled:
		return nil, ErrJobCancelled
	default:
		return nil, ErrResultNotReady
	}
}

// Cancel implements JobService.Cancel.
func (s *jobServiceImpl) Cancel(ctx context.Context, ownerID, jobID uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	job, err := s.getOwned(ctx, ownerID, jobID)
	if err != nil {
		return false, err
	}
	if job.Status.Terminal() {
		log.Debug("cancel requested for finished job",
			slog.String("job_id", jobID.String()),
			slog.String("status", string(job.Status)))
		return false, nil
	}

	finished, err := s.jobs.Finish(ctx, jobID, store.JobOutcome{
		Status:       domain.JobStatusCancelled,
		ErrorMessage: MessageCancelled,
	})
	if err != nil {
		if errors.Is(err, store.ErrJobFinished) {
			return false, nil
		}
		return false, s.storeError("cancel", "failed to cancel job", err)
	}

	running := s.runner.Cancel(jobID)
	log.Info("job cancelled",
		slog.String("job_id", jobID.String()),
		slog.Bool("was_running", running))

	s.emit(ctx, finished)
	return true, nil
}

// AddEmailAlert implements JobService.AddEmailAlert.
func (s *jobServiceImpl) AddEmailAlert(ctx context.Context, ownerID, jobID uuid.UUID) error {
	job, err := s.getOwned(ctx, ownerID, jobID)
	if err != nil {
		return err
	}
	if job.EmailAlert {
		return nil
	}

	updated, err := s.jobs.SetEmailAlert(ctx, jobID)
	if err != nil {
		return s.storeError("email_alert", "failed to set email alert", err)
	}

	// A job that finishes after this point carries the flag into its event.
	if updated.Status.Terminal() {
		s.emit(ctx, updated)
	}
	return nil
}

// Recover implements JobService.Recover.
func (s *jobServiceImpl) Recover(ctx context.Context) (int, error) {
	jobs, err := s.jobs.FailUnfinished(ctx, MessageInterruptedStart)
	if err != nil {
		return 0, s.storeError("recover", "failed to fail unfinished jobs", err)
	}

	for _, job := range jobs {
		s.emit(ctx, job)
	}
	if len(jobs) > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed jobs interrupted by restart",
			slog.Int("count", len(jobs)))
	}
	return len(jobs), nil
}

func (s *jobServiceImpl) getOwned(ctx context.Context, ownerID, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, s.storeError("get_job", "failed to load job", err)
	}
	if !job.OwnedBy(ownerID) {
		logger.FromContextOrDefault(ctx, s.logger).Debug("job requested by another owner",
			slog.String("job_id", jobID.String()),
			slog.String("owner_id", ownerID.String()))
		return nil, ErrJobNotFound
	}
	return job, nil
}

// finish applies a terminal outcome and emits the job's event. It reports
// whether this call finished the job.
func (s *jobServiceImpl) finish(ctx context.Context, jobID uuid.UUID, outcome store.JobOutcome) bool {
	job, err := s.jobs.Finish(ctx, jobID, outcome)
	if err != nil {
		if !errors.Is(err, store.ErrJobFinished) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to finish job",
				slog.String("job_id", jobID.String()),
				slog.String("status", string(outcome.Status)),
				slog.String("error", err.Error()))
		}
		return false
	}
	s.emit(ctx, job)
	return true
}

func (s *jobServiceImpl) emit(ctx context.Context, job *domain.Job) {
	var eventType events.JobEventType
	switch job.Status {
	case domain.JobStatusCompleted:
		eventType = events.JobCompleted
	case domain.JobStatusFailed:
		eventType = events.JobFailed
	case domain.JobStatusCancelled:
		eventType = events.JobCancelled
	default:
		return
	}

	event := events.NewJobEvent(eventType, job.ID, job.OwnerID, job.Type)
	event.Message = job.ErrorMessage
	event.EmailAlert = job.EmailAlert

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to emit job event",
			slog.String("job_id", job.ID.String()),
			slog.String("event_type", string(eventType)),
			slog.String("error", err.Error()))
	}
}

func (s *jobServiceImpl) storeError(operation, message string, err error) error {
	if store.IsNotFoundError(err) {
		return ErrJobNotFound
	}
	return NewServiceError(operation, message, err)
}
