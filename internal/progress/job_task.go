package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
)

// jobTask runs a persisted job on the task runner.
type jobTask struct {
	job *domain.Job
	svc *jobServiceImpl
}

// Verify interface compliance at compile time
var _ task.Task = (*jobTask)(nil)

func (t *jobTask) ID() uuid.UUID { return t.job.ID }

func (t *jobTask) Type() string { return t.job.Type }

// Execute runs the job function and records its outcome. Store writes use a
// context detached from ctx so the outcome is saved after cancellation.
func (t *jobTask) Execute(ctx context.Context) error {
	s := t.svc
	storeCtx := context.WithoutCancel(ctx)
	log := s.logger.With(
		slog.String("job_id", t.job.ID.String()),
		slog.String("job_type", t.job.Type))

	if err := s.jobs.MarkRunning(storeCtx, t.job.ID); err != nil {
		if errors.Is(err, store.ErrJobFinished) {
			log.Debug("job finished before it started, skipping")
			return nil
		}
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	def, err := s.registry.Lookup(t.job.Type)
	if err != nil {
		s.finish(storeCtx, t.job.ID, store.JobOutcome{
			Status:       domain.JobStatusFailed,
			ErrorMessage: err.Error(),
		})
		return err
	}

	report := task.ReporterFunc(func(_ context.Context, description string) error {
		return s.jobs.AppendMessage(storeCtx, t.job.ID, description)
	})

	result, runErr := runDefinition(ctx, def, t.job.Params, report)
	if errors.Is(runErr, errJobPanicked) {
		log.Error("job function panicked", slog.String("error", runErr.Error()))
	}

	var outcome store.JobOutcome
	switch {
	case ctx.Err() != nil:
		// Either Cancel already finished the job, in which case Finish is a
		// no-op, or the runner is shutting down.
		outcome = store.JobOutcome{Status: domain.JobStatusFailed, ErrorMessage: MessageInterruptedStop}
		runErr = nil
	case runErr != nil:
		outcome = store.JobOutcome{Status: domain.JobStatusFailed, ErrorMessage: runErr.Error()}
	default:
		outcome = store.JobOutcome{Status: domain.JobStatusCompleted, Result: result}
	}

	if s.finish(storeCtx, t.job.ID, outcome) {
		log.Info("job finished", slog.String("status", string(outcome.Status)))
	}
	return runErr
}

var errJobPanicked = errors.New("job panicked")

// runDefinition calls def.Run, converting a panic into an error so the job
// still reaches a terminal status.
func runDefinition(ctx context.Context, def task.Definition, params json.RawMessage, report task.Reporter) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", errJobPanicked, r)
		}
	}()
	return def.Run(ctx, params, report)
}
