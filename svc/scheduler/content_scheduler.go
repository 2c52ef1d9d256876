package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/postpilot/core/pkg/distlock"
	"github.com/postpilot/core/pkg/logger"
	"github.com/postpilot/core/pkg/queue"
	"github.com/postpilot/core/svc/content"
	"github.com/postpilot/core/svc/pipeline"
)

const contentLockKey = "scheduler:content"

// ContentRepository is the datastore slice the content scheduler needs.
type ContentRepository interface {
	// DueSchedules returns active schedules whose NextRunAt is unset or at
	// or before now.
	DueSchedules(ctx context.Context, now time.Time) ([]*content.Schedule, error)

	// ReadyMaterials returns the tenant's materials in READY status.
	ReadyMaterials(ctx context.Context, tenantID uuid.UUID) ([]*content.Material, error)

	// ActivePlatforms returns the subset of platforms for which the tenant
	// has an active social account.
	ActivePlatforms(ctx context.Context, tenantID uuid.UUID, platforms []content.Platform) ([]content.Platform, error)

	// UpdateNextRunAt advances a schedule's next run time.
	UpdateNextRunAt(ctx context.Context, scheduleID uuid.UUID, nextRunAt time.Time) error
}

// ContentScheduler turns due schedules into generation jobs, exactly once
// per due time across the fleet.
type ContentScheduler struct {
	repo     ContentRepository
	locker   distlock.Locker
	enqueuer Enqueuer
	lockTTL  time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	randIntN func(int) int
}

// ContentOption configures a ContentScheduler.
type ContentOption func(*ContentScheduler)

// WithContentLogger sets the scheduler's logger.
func WithContentLogger(logger *slog.Logger) ContentOption {
	return func(s *ContentScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithContentClock injects the time source, for tests.
func WithContentClock(now func() time.Time) ContentOption {
	return func(s *ContentScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithContentRand injects the random source used by the RANDOM selection
// strategy, for tests.
func WithContentRand(intN func(int) int) ContentOption {
	return func(s *ContentScheduler) {
		if intN != nil {
			s.randIntN = intN
		}
	}
}

// NewContentScheduler wires the content scheduler.
func NewContentScheduler(repo ContentRepository, locker distlock.Locker, enqueuer Enqueuer, cfg Config, opts ...ContentOption) (*ContentScheduler, error) {
	if repo == nil || locker == nil || enqueuer == nil {
		return nil, ErrDependencyNil
	}

	s := &ContentScheduler{
		repo:     repo,
		locker:   locker,
		enqueuer: enqueuer,
		lockTTL:  cfg.ContentLockTTL,
		interval: cfg.ContentTickInterval,
		logger:   slog.Default(),
		now:      time.Now,
		randIntN: rand.IntN,
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 2 * time.Minute
	}
	if s.interval <= 0 {
		s.interval = time.Minute
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run ticks on the configured interval until ctx is cancelled.
func (s *ContentScheduler) Run(ctx context.Context) error {
	return loop(ctx, s.interval, s.logger, "content", s.Tick)
}

// Tick processes all due schedules once, under the cluster-wide lock.
// A single schedule's failure is logged and does not stop the batch.
func (s *ContentScheduler) Tick(ctx context.Context) error {
	return runExclusive(ctx, s.locker, contentLockKey, s.lockTTL, s.logger, func(ctx context.Context) error {
		now := s.now()

		schedules, err := s.repo.DueSchedules(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to query due schedules: %w", err)
		}

		s.logger.DebugContext(ctx, "content tick",
			slog.Int("due_schedules", len(schedules)))

		for _, sched := range schedules {
			if err := s.processSchedule(ctx, sched, now); err != nil {
				s.logger.ErrorContext(ctx, "schedule processing failed",
					logger.ScheduleID(sched.ID),
					logger.TenantID(sched.TenantID),
					logger.Error(err))
			}
		}
		return nil
	})
}

func (s *ContentScheduler) processSchedule(ctx context.Context, sched *content.Schedule, now time.Time) error {
	platforms, err := s.repo.ActivePlatforms(ctx, sched.TenantID, sched.Platforms)
	if err != nil {
		return fmt.Errorf("failed to resolve active platforms: %w", err)
	}
	if len(platforms) == 0 {
		s.logger.WarnContext(ctx, "schedule skipped, no active platform connection",
			logger.ScheduleID(sched.ID),
			logger.TenantID(sched.TenantID))
		return s.advance(ctx, sched, now)
	}

	materials, err := s.repo.ReadyMaterials(ctx, sched.TenantID)
	if err != nil {
		return fmt.Errorf("failed to query ready materials: %w", err)
	}
	if len(materials) == 0 {
		s.logger.WarnContext(ctx, "schedule skipped, no ready material",
			logger.ScheduleID(sched.ID),
			logger.TenantID(sched.TenantID))
		return s.advance(ctx, sched, now)
	}

	material := s.selectMaterial(sched.Strategy, materials)

	// The due time identifies this run; re-delivered ticks after a crash
	// between enqueue and advance produce the same key and dedup.
	runAt := now
	if sched.NextRunAt != nil {
		runAt = *sched.NextRunAt
	}

	job := pipeline.GenerateJob{
		ScheduleID:     sched.ID,
		MaterialID:     material.ID,
		TenantID:       sched.TenantID,
		Platforms:      platforms,
		VariationCount: sched.VariationCount,
		ScheduledFor:   sched.NextPreferredTime(now),
	}
	err = s.enqueuer.Enqueue(ctx, job,
		queue.WithQueue("generate"),
		queue.WithIdempotencyKey(fmt.Sprintf("generate:%s:%d", sched.ID, runAt.Unix())))
	if err != nil {
		return fmt.Errorf("failed to enqueue generation: %w", err)
	}

	s.logger.InfoContext(ctx, "generation job enqueued",
		logger.ScheduleID(sched.ID),
		logger.MaterialID(material.ID),
		slog.Int("platforms", len(platforms)))

	return s.advance(ctx, sched, now)
}

func (s *ContentScheduler) advance(ctx context.Context, sched *content.Schedule, now time.Time) error {
	next := sched.NextRunAfter(now)
	if err := s.repo.UpdateNextRunAt(ctx, sched.ID, next); err != nil {
		return fmt.Errorf("failed to advance next run: %w", err)
	}
	return nil
}

// selectMaterial picks one READY material per the schedule's strategy.
func (s *ContentScheduler) selectMaterial(strategy content.SelectionStrategy, materials []*content.Material) *content.Material {
	switch strategy {
	case content.SelectionRandom:
		return materials[s.randIntN(len(materials))]

	case content.SelectionPriority:
		return slices.MinFunc(materials, func(a, b *content.Material) int {
			if a.Priority != b.Priority {
				// higher priority first
				return b.Priority - a.Priority
			}
			return a.CreatedAt.Compare(b.CreatedAt)
		})

	case content.SelectionLeastUsed:
		return slices.MinFunc(materials, func(a, b *content.Material) int {
			if a.UsageCount != b.UsageCount {
				return a.UsageCount - b.UsageCount
			}
			return a.CreatedAt.Compare(b.CreatedAt)
		})

	default: // ROUND_ROBIN: least recently used, never-used first
		return slices.MinFunc(materials, func(a, b *content.Material) int {
			switch {
			case a.LastUsedAt == nil && b.LastUsedAt != nil:
				return -1
			case a.LastUsedAt != nil && b.LastUsedAt == nil:
				return 1
			case a.LastUsedAt != nil && b.LastUsedAt != nil && !a.LastUsedAt.Equal(*b.LastUsedAt):
				return a.LastUsedAt.Compare(*b.LastUsedAt)
			}
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}
}
