package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"kotvukai/internal/logger"
)

//go:embed migrations/001_init_schema.sql
var migrationSQL string

// sqliteStatements is the SQLite rendition of the same schema. Timestamps are
// unix microseconds.
var sqliteStatements = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id          TEXT PRIMARY KEY,
		pair        TEXT NOT NULL,
		type        TEXT NOT NULL,
		entry       REAL NOT NULL DEFAULT 0,
		tp          REAL NOT NULL DEFAULT 0,
		sl          REAL NOT NULL DEFAULT 0,
		reason      TEXT NOT NULL DEFAULT '',
		accuracy    REAL NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at)`,
	`CREATE TABLE IF NOT EXISTS system_settings (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		description TEXT,
		updated_at  INTEGER NOT NULL
	)`,
}

// RunMigrations applies the Postgres schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db *pgxpool.Pool) error {
	logger.Info(ctx, "Running database migrations", "dialect", "postgres")

	if _, err := db.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info(ctx, "Database migrations completed")
	return nil
}

// RunSQLiteMigrations applies the SQLite schema
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	logger.Info(ctx, "Running database migrations", "dialect", "sqlite")

	for _, stmt := range sqliteStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}
