package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/fuzzfleet/pkg/db"
	"github.com/dmitrymomot/fuzzfleet/pkg/job/pgstore"
	"github.com/dmitrymomot/fuzzfleet/pkg/logger"
	"github.com/dmitrymomot/fuzzfleet/pkg/task"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

// migrateUpAction applies the job schema and the task queue schema.
func migrateUpAction(ctx context.Context, cmd *cli.Command) error {
	return withPool(ctx, cmd, func(pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
		if err := pgstore.Migrate(ctx, pool, cfg.DB.MigrationsTable, log); err != nil {
			return err
		}
		return task.Migrate(ctx, pool, log)
	})
}

// migrateDownAction rolls back the last job schema migration.
// The task queue schema is owned by River and is left alone.
func migrateDownAction(ctx context.Context, cmd *cli.Command) error {
	return withPool(ctx, cmd, func(pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
		return db.Rollback(ctx, pool, pgstore.Migrations(), cfg.DB.MigrationsTable, log)
	})
}

func migrateStatusAction(ctx context.Context, cmd *cli.Command) error {
	return withPool(ctx, cmd, func(pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
		return db.MigrationStatus(ctx, pool, pgstore.Migrations(), cfg.DB.MigrationsTable, log)
	})
}

func withPool(ctx context.Context, cmd *cli.Command, fn func(*pgxpool.Pool, Config, *slog.Logger) error) error {
	cfg, err := loadConfig(cmd.String("env"))
	if err != nil {
		return err
	}
	if !cfg.DB.Enabled() {
		return errNoDatabase
	}

	log := logger.New(cfg.Log)
	pool, err := db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(pool, cfg, log)
}
