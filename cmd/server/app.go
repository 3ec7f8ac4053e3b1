package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/events"
	"github.com/phrazzld/taskwatch/internal/progress"
	"github.com/phrazzld/taskwatch/internal/service/auth"
	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
)

// application holds the shared application dependencies so they can be
// wired once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jobStore   store.JobStore
	jwtService auth.JWTService
	registry   *task.Registry

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
	jobService   progress.JobService
}

// newApplication wires the services on top of an opened store, fails jobs
// left over from a previous run and starts the worker pool.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	deps storeDeps,
) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       deps.db,
		jobStore: deps.jobs,
		registry: task.NewDefaultRegistry(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(
		progress.NewAlertHandler(progress.NewLogNotifier(logger), logger),
	)

	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Jobs.WorkerCount,
		QueueSize:   cfg.Jobs.QueueSize,
	}, logger)
	app.taskRunner.SetErrorHandler(func(t task.Task, err error) {
		logger.Debug("job ended with error",
			"job_id", t.ID().String(),
			"job_type", t.Type(),
			"error", err)
	})

	app.jobService = progress.NewJobService(
		app.jobStore,
		app.taskRunner,
		app.registry,
		app.eventEmitter,
		logger,
	)

	recovered, err := app.jobService.Recover(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover unfinished jobs: %w", err)
	}
	if recovered > 0 {
		logger.Warn("failed jobs interrupted by a previous shutdown", "count", recovered)
	}

	app.taskRunner.Start()

	logger.Info("application initialized", "job_types", app.registry.Types())
	return app, nil
}

// Run serves the API until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the workers and closes the database. Jobs still running are
// cancelled and recorded as interrupted.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application resources released")
}
