package galaxy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	logger := slog.With("component", "galaxy_repository", "operation", "init")
	logger.Debug("Initializing galaxy repository")
	return &Repository{db: db}
}

const snapshotColumns = `id, particle_count, particle_size, radius, branches, spin, randomness,
		randomness_power, inside_color, outside_color, seed, created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) CreateSnapshot(ctx context.Context, p Parameters, createdBy string) (*Snapshot, error) {
	logger := slog.With(
		"component", "galaxy_repository",
		"operation", "create_snapshot",
		"count", p.Count,
		"branches", p.Branches,
		"created_by", createdBy,
	)
	logger.Debug("Storing galaxy snapshot")

	query := `
		INSERT INTO galaxy_snapshots (particle_count, particle_size, radius, branches, spin, randomness,
			randomness_power, inside_color, outside_color, seed, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + snapshotColumns

	var seed sql.NullString
	if p.Seed != nil {
		seed = sql.NullString{String: strconv.FormatUint(*p.Seed, 10), Valid: true}
	}

	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, query,
		p.Count,
		p.ParticleSize,
		p.Radius,
		p.Branches,
		p.Spin,
		p.Randomness,
		p.RandomnessPower,
		p.InsideColor.Hex(),
		p.OutsideColor.Hex(),
		seed,
		createdBy,
	))
	if err != nil {
		logger.Error("Failed to store galaxy snapshot", "error", err)
		return nil, fmt.Errorf("failed to create galaxy snapshot: %w", err)
	}

	logger.Info("Galaxy snapshot stored", "snapshot_id", snapshot.ID)
	return snapshot, nil
}

// GetLatestSnapshot returns nil without error when nothing has been stored.
func (r *Repository) GetLatestSnapshot(ctx context.Context) (*Snapshot, error) {
	logger := slog.With("component", "galaxy_repository", "operation", "get_latest_snapshot")
	logger.Debug("Getting latest galaxy snapshot")

	query := `SELECT ` + snapshotColumns + `
		FROM galaxy_snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("No galaxy snapshot stored yet")
			return nil, nil
		}
		logger.Error("Database error getting latest snapshot", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	logger.Debug("Latest galaxy snapshot retrieved", "snapshot_id", snapshot.ID)
	return snapshot, nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (r *Repository) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	logger := slog.With("component", "galaxy_repository", "operation", "list_snapshots", "limit", limit)
	logger.Debug("Listing galaxy snapshots")

	query := `SELECT ` + snapshotColumns + `
		FROM galaxy_snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		logger.Error("Failed to list galaxy snapshots", "error", err)
		return nil, fmt.Errorf("failed to list galaxy snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			logger.Error("Failed to scan galaxy snapshot", "error", err)
			return nil, fmt.Errorf("failed to scan galaxy snapshot: %w", err)
		}
		snapshots = append(snapshots, *snapshot)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error iterating galaxy snapshots", "error", err)
		return nil, fmt.Errorf("failed to iterate galaxy snapshots: %w", err)
	}

	logger.Debug("Galaxy snapshots listed", "count", len(snapshots))
	return snapshots, nil
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var (
		s            Snapshot
		insideColor  string
		outsideColor string
		seed         sql.NullString
	)

	err := row.Scan(
		&s.ID,
		&s.Parameters.Count,
		&s.Parameters.ParticleSize,
		&s.Parameters.Radius,
		&s.Parameters.Branches,
		&s.Parameters.Spin,
		&s.Parameters.Randomness,
		&s.Parameters.RandomnessPower,
		&insideColor,
		&outsideColor,
		&seed,
		&s.CreatedBy,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.Parameters.InsideColor, err = ParseColor(insideColor); err != nil {
		return nil, err
	}
	if s.Parameters.OutsideColor, err = ParseColor(outsideColor); err != nil {
		return nil, err
	}
	if seed.Valid {
		v, err := strconv.ParseUint(seed.String, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid stored seed %q: %w", seed.String, err)
		}
		s.Parameters.Seed = &v
	}

	return &s, nil
}
