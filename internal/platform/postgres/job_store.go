package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/platform/logger"
	"github.com/phrazzld/taskwatch/internal/store"
)

const jobColumns = `id, owner_id, type, params, status, result, error_message,
	latest_description, delivered_seq, email_alert, created_at, updated_at, finished_at`

// PostgresJobStore implements the store.JobStore interface
// using a PostgreSQL database as the storage backend.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the JobStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// Create implements store.JobStore.Create
// It saves a new job to the database, handling domain validation.
// Returns store.ErrDuplicate if a job with the same ID exists.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	query := `
		INSERT INTO jobs (id, owner_id, type, params, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.OwnerID,
		job.Type,
		string(job.Params),
		string(job.Status),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("job id already exists", slog.String("job_id", job.ID.String()))
			return fmt.Errorf("%w: job %s", store.ErrDuplicate, job.ID)
		}
		log.Error("failed to insert job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("job created",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type))
	return nil
}

// GetByID implements store.JobStore.GetByID
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", MapError(err))
	}
	return job, nil
}

// MarkRunning implements store.JobStore.MarkRunning
func (s *PostgresJobStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs SET status = 'running', updated_at = $2
		WHERE id = $1 AND status = 'pending'
	`
	result, err := s.db.ExecContext(ctx, query, id, s.now())
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, "job"); err != nil {
		if IsNotFoundError(err) {
			return s.missingOrFinished(ctx, id)
		}
		return err
	}
	return nil
}

// AppendMessage implements store.JobStore.AppendMessage
// Updating the job row first locks it, so concurrent appends get
// consecutive sequence numbers.
func (s *PostgresJobStore) AppendMessage(ctx context.Context, id uuid.UUID, description string) error {
	now := s.now()

	return s.inTx(ctx, func(ctx context.Context, db store.DBTX) error {
		result, err := db.ExecContext(ctx, `
			UPDATE jobs SET latest_description = $2, updated_at = $3
			WHERE id = $1
		`, id, description, now)
		if err != nil {
			return fmt.Errorf("failed to update latest description: %w", MapError(err))
		}
		if err := CheckRowsAffected(result, "job"); err != nil {
			if IsNotFoundError(err) {
				return store.ErrJobNotFound
			}
			return err
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO job_messages (job_id, seq, description, created_at)
			VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM job_messages WHERE job_id = $1), $2, $3)
		`, id, description, now)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return store.ErrJobNotFound
			}
			return fmt.Errorf("failed to insert job message: %w", MapError(err))
		}
		return nil
	})
}

// TakeMessages implements store.JobStore.TakeMessages
func (s *PostgresJobStore) TakeMessages(ctx context.Context, id uuid.UUID) ([]domain.JobMessage, error) {
	var messages []domain.JobMessage

	err := s.inTx(ctx, func(ctx context.Context, db store.DBTX) error {
		var delivered int
		err := db.QueryRowContext(ctx,
			`SELECT delivered_seq FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&delivered)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrJobNotFound
			}
			return fmt.Errorf("failed to lock job: %w", MapError(err))
		}

		rows, err := db.QueryContext(ctx, `
			SELECT seq, description, created_at FROM job_messages
			WHERE job_id = $1 AND seq > $2
			ORDER BY seq
		`, id, delivered)
		if err != nil {
			return fmt.Errorf("failed to query job messages: %w", MapError(err))
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			msg := domain.JobMessage{JobID: id}
			if err := rows.Scan(&msg.Seq, &msg.Description, &msg.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan job message: %w", err)
			}
			messages = append(messages, msg)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read job messages: %w", err)
		}

		if len(messages) == 0 {
			return nil
		}

		last := messages[len(messages)-1].Seq
		if _, err := db.ExecContext(ctx,
			`UPDATE jobs SET delivered_seq = $2 WHERE id = $1`, id, last); err != nil {
			return fmt.Errorf("failed to advance delivered cursor: %w", MapError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Finish implements store.JobStore.Finish
func (s *PostgresJobStore) Finish(
	ctx context.Context,
	id uuid.UUID,
	outcome store.JobOutcome,
) (*domain.Job, error) {
	if !outcome.Status.Terminal() {
		return nil, fmt.Errorf("%w: %q is not a terminal status", store.ErrInvalidEntity, outcome.Status)
	}

	query := `
		UPDATE jobs
		SET status = $2, result = $3, error_message = $4, updated_at = $5, finished_at = $5
		WHERE id = $1 AND status IN ('pending', 'running')
		RETURNING ` + jobColumns

	job, err := scanJob(s.db.QueryRowContext(ctx, query,
		id,
		string(outcome.Status),
		nullableJSON(outcome.Result),
		outcome.ErrorMessage,
		s.now(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.missingOrFinished(ctx, id)
		}
		return nil, fmt.Errorf("failed to finish job: %w", MapError(err))
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("job finished",
		slog.String("job_id", id.String()),
		slog.String("status", string(job.Status)))
	return job, nil
}

// SetEmailAlert implements store.JobStore.SetEmailAlert
func (s *PostgresJobStore) SetEmailAlert(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `
		UPDATE jobs SET email_alert = TRUE, updated_at = $2
		WHERE id = $1
		RETURNING ` + jobColumns

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id, s.now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to set email alert: %w", MapError(err))
	}
	return job, nil
}

// FailUnfinished implements store.JobStore.FailUnfinished
func (s *PostgresJobStore) FailUnfinished(ctx context.Context, message string) ([]*domain.Job, error) {
	now := s.now()
	query := `
		UPDATE jobs
		SET status = 'failed', error_message = $1, updated_at = $2, finished_at = $2
		WHERE status IN ('pending', 'running')
		RETURNING ` + jobColumns

	rows, err := s.db.QueryContext(ctx, query, message, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fail unfinished jobs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}
	return jobs, nil
}

// missingOrFinished distinguishes an unknown job from one whose state did
// not allow the update.
func (s *PostgresJobStore) missingOrFinished(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check job existence: %w", MapError(err))
	}
	if !exists {
		return store.ErrJobNotFound
	}
	return store.ErrJobFinished
}

// inTx runs fn in a transaction when the store holds a *sql.DB. A store
// already bound to a transaction runs fn directly.
func (s *PostgresJobStore) inTx(ctx context.Context, fn func(ctx context.Context, db store.DBTX) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return fn(ctx, s.db)
	}
	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, tx)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job        domain.Job
		status     string
		params     []byte
		result     []byte
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Type,
		&params,
		&status,
		&result,
		&job.ErrorMessage,
		&job.LatestDescription,
		&job.DeliveredSeq,
		&job.EmailAlert,
		&job.CreatedAt,
		&job.UpdatedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = domain.JobStatus(status)
	job.Params = json.RawMessage(params)
	if len(result) > 0 {
		job.Result = json.RawMessage(result)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	return &job, nil
}

func nullableJSON(r json.RawMessage) any {
	if len(r) == 0 {
		return nil
	}
	return string(r)
}
