package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// migrationLockKey serialises migrations across server replicas starting at
// the same time.
var migrationLockKey = int64(xxhash.Sum64String("galaxy-server/schema_migrations") >> 1)

// RunMigrations applies every *.sql file in dir that is not yet recorded in
// schema_migrations, in file name order, one transaction per file. It returns
// how many files were applied.
func (db *DB) RunMigrations(ctx context.Context, dir string) (int, error) {
	logger := slog.With("component", "migrations", "dir", dir)

	if _, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list migrations: %w", err)
	}
	logger.Info("Found migration files", "count", len(files))

	applied := 0
	for _, file := range files {
		ran, err := db.applyMigration(ctx, file)
		if err != nil {
			return applied, fmt.Errorf("migration %s: %w", filepath.Base(file), err)
		}
		if ran {
			applied++
		}
	}

	logger.Info("Migrations complete", "applied", applied)
	return applied, nil
}

// migrationFiles lists the top-level *.sql files of dir. os.ReadDir returns
// them sorted by name.
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func (db *DB) applyMigration(ctx context.Context, file string) (bool, error) {
	version := filepath.Base(file)
	logger := slog.With("component", "migrations", "operation", "apply", "migration", version)

	content, err := os.ReadFile(file)
	if err != nil {
		return false, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("Failed to rollback migration", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
		return false, fmt.Errorf("failed to take migration lock: %w", err)
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	if exists {
		logger.Debug("Migration already applied")
		return false, nil
	}

	logger.Info("Applying migration", "size_bytes", len(content))
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return false, fmt.Errorf("failed to record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit migration: %w", err)
	}
	return true, nil
}
