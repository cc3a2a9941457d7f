package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"galaxy-server/internal/shared/config"

	_ "github.com/lib/pq"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

type DB struct {
	*sql.DB
}

// Connect opens the snapshot database and waits for it to answer, retrying
// with a doubling backoff while Postgres is still starting up.
func Connect(ctx context.Context, cfg *config.Config) (*DB, error) {
	logger := slog.With("component", "database", "operation", "connect")
	logger.Info("Connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
		"sslmode", cfg.Database.SSLMode,
		"max_open_conns", cfg.Database.MaxOpenConns,
	)

	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := pingWithRetry(ctx, sqlDB, connectAttempts, connectBackoff, logger); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Warn("Failed to close database after ping failure", "error", closeErr)
		}
		return nil, err
	}

	logger.Info("Database connection established", "database", cfg.Database.Name)
	return &DB{sqlDB}, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, attempts int, backoff time.Duration, logger *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		logger.Warn("Database not ready, retrying", "attempt", attempt, "wait", backoff, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, err)
}
