package galaxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"galaxy-server/internal/shared/config"
	apperrors "galaxy-server/internal/shared/errors"
)

type SnapshotStore interface {
	CreateSnapshot(ctx context.Context, p Parameters, createdBy string) (*Snapshot, error)
	GetLatestSnapshot(ctx context.Context) (*Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
}

type BufferCache interface {
	Get(ctx context.Context, p Parameters) (*Buffer, bool, error)
	Put(ctx context.Context, buf *Buffer) error
}

// SystemAuthor marks snapshots created by the server itself.
const SystemAuthor = "system"

type ServiceConfig struct {
	Defaults          Parameters
	Controls          Controls
	GenerationTimeout time.Duration
	HistoryLimit      int
}

type Service struct {
	repo       SnapshotStore
	cache      BufferCache
	controller *Controller
	cfg        ServiceConfig
	logger     *slog.Logger

	mu       sync.RWMutex
	snapshot *Snapshot
	// snapshotEpoch is the epoch of the buffer built from snapshot.
	snapshotEpoch uint64
}

// NewService wires the snapshot store, an optional cache (nil disables
// caching) and the controller that owns the published buffer.
func NewService(repo SnapshotStore, cache BufferCache, controller *Controller, cfg ServiceConfig, logger *slog.Logger) *Service {
	logger.Debug("Initializing galaxy service", "cache_enabled", cache != nil)

	return &Service{
		repo:       repo,
		cache:      cache,
		controller: controller,
		cfg:        cfg,
		logger:     logger,
	}
}

// DefaultParameters converts the configured defaults into Parameters.
func DefaultParameters(cfg config.GalaxyConfig) (Parameters, error) {
	inside, err := ParseColor(cfg.InsideColor)
	if err != nil {
		return Parameters{}, fmt.Errorf("GALAXY_INSIDE_COLOR: %w", err)
	}
	outside, err := ParseColor(cfg.OutsideColor)
	if err != nil {
		return Parameters{}, fmt.Errorf("GALAXY_OUTSIDE_COLOR: %w", err)
	}

	p := Parameters{
		Count:           cfg.Count,
		ParticleSize:    cfg.ParticleSize,
		Radius:          cfg.Radius,
		Branches:        cfg.Branches,
		Spin:            cfg.Spin,
		Randomness:      cfg.Randomness,
		RandomnessPower: cfg.RandomnessPower,
		InsideColor:     inside,
		OutsideColor:    outside,
	}
	if cfg.Seeded {
		p = p.WithSeed(cfg.Seed)
	}
	return p, p.Validate()
}

// Bootstrap publishes the first buffer from the latest stored snapshot,
// storing the configured defaults when there is none.
func (s *Service) Bootstrap(ctx context.Context) error {
	logger := s.logger.With("component", "galaxy_service", "operation", "bootstrap")
	logger.Info("Bootstrapping galaxy")

	snapshot, err := s.repo.GetLatestSnapshot(ctx)
	if err != nil {
		return apperrors.WrapExternal("failed to load galaxy snapshot", err)
	}

	if snapshot == nil {
		logger.Info("No stored snapshot, using configured defaults")
		snapshot, err = s.repo.CreateSnapshot(ctx, s.cfg.Defaults, SystemAuthor)
		if err != nil {
			return apperrors.WrapExternal("failed to store default galaxy snapshot", err)
		}
	}

	buf, err := s.publish(ctx, snapshot.Parameters)
	if err != nil {
		logger.Error("Failed to generate initial galaxy", "error", err)
		return err
	}

	s.setSnapshot(snapshot, buf.Epoch)
	logger.Info("Galaxy bootstrapped", "snapshot_id", snapshot.ID, "count", snapshot.Parameters.Count)
	return nil
}

// UpdateParameters handles one finalized edit: the snapshot is recorded and
// the galaxy regenerated. Invalid parameters are rejected before anything
// is stored and the published buffer is left untouched.
func (s *Service) UpdateParameters(ctx context.Context, p Parameters, createdBy string) (*Snapshot, error) {
	logger := s.logger.With(
		"component", "galaxy_service",
		"operation", "update_parameters",
		"created_by", createdBy,
		"count", p.Count,
		"branches", p.Branches,
	)
	logger.Info("Applying finalized galaxy parameters")

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.cfg.Controls.Check(p); err != nil {
		return nil, err
	}

	snapshot, err := s.repo.CreateSnapshot(ctx, p, createdBy)
	if err != nil {
		return nil, apperrors.WrapExternal("failed to store galaxy snapshot", err)
	}

	buf, err := s.publish(ctx, p)
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			logger.Info("Galaxy update superseded by a newer one", "snapshot_id", snapshot.ID)
		}
		return nil, err
	}

	if !s.setSnapshot(snapshot, buf.Epoch) {
		logger.Info("Galaxy update overtaken after publishing", "snapshot_id", snapshot.ID, "epoch", buf.Epoch)
	}
	logger.Info("Galaxy parameters applied", "snapshot_id", snapshot.ID, "epoch", buf.Epoch)
	return snapshot, nil
}

// publish makes p current and returns the buffer it published.
func (s *Service) publish(ctx context.Context, p Parameters) (*Buffer, error) {
	logger := s.logger.With("component", "galaxy_service", "operation", "publish", "seeded", p.Seeded())

	if s.cache != nil {
		buf, hit, err := s.cache.Get(ctx, p)
		if err != nil {
			logger.Warn("Buffer cache unavailable, generating", "error", err)
		}
		if hit {
			epoch := s.controller.Publish(buf)
			logger.Debug("Published cached buffer", "epoch", epoch)
			return buf, nil
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	buf, err := s.controller.regenerate(genCtx, p)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.WrapTimeout("galaxy generation timed out", err)
		}
		return nil, err
	}
	logger.Debug("Galaxy generated", "epoch", buf.Epoch, "duration_ms", time.Since(start).Milliseconds())

	if s.cache != nil && p.Seeded() {
		if err := s.cache.Put(ctx, buf); err != nil {
			logger.Warn("Failed to cache generated buffer", "error", err)
		}
	}
	return buf, nil
}

// setSnapshot records snapshot as the source of the buffer published at
// epoch. A snapshot whose buffer has already been replaced is ignored and
// false is returned.
func (s *Service) setSnapshot(snapshot *Snapshot, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch < s.snapshotEpoch {
		return false
	}
	if cur := s.controller.Current(); cur == nil || cur.Epoch != epoch {
		return false
	}
	s.snapshot = snapshot
	s.snapshotEpoch = epoch
	return true
}

// Snapshot returns the snapshot behind the published buffer.
func (s *Service) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, apperrors.NotFoundf("galaxy has not been generated yet")
	}
	return s.snapshot, nil
}

func (s *Service) Current() (*Buffer, error) {
	buf := s.controller.Current()
	if buf == nil {
		return nil, apperrors.NotFoundf("galaxy has not been generated yet")
	}
	return buf, nil
}

func (s *Service) Status() Status {
	status := Status{
		State: s.controller.State(),
		Epoch: s.controller.Epoch(),
	}
	if buf := s.controller.Current(); buf != nil {
		generatedAt := buf.GeneratedAt
		status.Epoch = buf.Epoch
		status.Count = buf.Len()
		status.Seeded = buf.Params.Seeded()
		status.GeneratedAt = &generatedAt
	}
	return status
}

// History lists stored snapshots; limit is clamped to the configured maximum.
func (s *Service) History(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	snapshots, err := s.repo.ListSnapshots(ctx, limit)
	if err != nil {
		return nil, apperrors.WrapExternal("failed to list galaxy snapshots", err)
	}
	return snapshots, nil
}

func (s *Service) Controls() Controls {
	return s.cfg.Controls
}
