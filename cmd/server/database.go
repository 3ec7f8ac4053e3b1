package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/platform/memory"
	"github.com/phrazzld/taskwatch/internal/platform/postgres"
	"github.com/phrazzld/taskwatch/internal/store"
)

// errNoDatabase is returned by -migrate-only when no database is configured.
var errNoDatabase = errors.New("database.url is not set")

// storeDeps is the job store together with the connection backing it.
// db is nil for the in-memory store.
type storeDeps struct {
	db   *sql.DB
	jobs store.JobStore
}

func (d storeDeps) close(logger *slog.Logger) {
	if d.db == nil {
		return
	}
	if err := d.db.Close(); err != nil {
		logger.Error("error closing database connection", "error", err)
	}
}

// setupStore opens the configured job store. Postgres is migrated before use.
// An empty database URL selects the in-memory store, whose jobs do not
// survive a restart.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storeDeps, error) {
	if cfg.Database.URL == "" {
		logger.Warn("no database configured, using in-memory job store")
		return storeDeps{jobs: memory.NewJobStore()}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return storeDeps{}, err
	}

	if err := postgres.Migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return storeDeps{}, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return storeDeps{
		db:   db,
		jobs: postgres.NewPostgresJobStore(db, logger),
	}, nil
}

// runMigrations applies pending migrations and returns.
func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Database.URL == "" {
		return errNoDatabase
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := postgres.Migrate(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("migrations applied")
	return nil
}
