package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/postpilot/core/pkg/distlock"
	"github.com/postpilot/core/pkg/logger"
	"github.com/postpilot/core/pkg/queue"
	"github.com/postpilot/core/svc/content"
	"github.com/postpilot/core/svc/pipeline"
)

const analyticsLockKey = "scheduler:analytics"

// AnalyticsRepository is the datastore slice the analytics scheduler needs.
type AnalyticsRepository interface {
	// StalePosts returns posts published at or after publishedSince that
	// carry a platform post id and whose metrics were last updated before
	// updatedBefore (or never).
	StalePosts(ctx context.Context, publishedSince, updatedBefore time.Time) ([]*content.Post, error)
}

// AnalyticsScheduler refreshes engagement metrics of recently published
// posts, oldest metrics first.
type AnalyticsScheduler struct {
	repo        AnalyticsRepository
	locker      distlock.Locker
	enqueuer    Enqueuer
	lockTTL     time.Duration
	interval    time.Duration
	lookback    time.Duration
	minInterval time.Duration
	stagger     time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// AnalyticsOption configures an AnalyticsScheduler.
type AnalyticsOption func(*AnalyticsScheduler)

// WithAnalyticsLogger sets the scheduler's logger.
func WithAnalyticsLogger(logger *slog.Logger) AnalyticsOption {
	return func(s *AnalyticsScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAnalyticsClock injects the time source, for tests.
func WithAnalyticsClock(now func() time.Time) AnalyticsOption {
	return func(s *AnalyticsScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAnalyticsScheduler wires the analytics scheduler.
func NewAnalyticsScheduler(repo AnalyticsRepository, locker distlock.Locker, enqueuer Enqueuer, cfg Config, opts ...AnalyticsOption) (*AnalyticsScheduler, error) {
	if repo == nil || locker == nil || enqueuer == nil {
		return nil, ErrDependencyNil
	}

	s := &AnalyticsScheduler{
		repo:        repo,
		locker:      locker,
		enqueuer:    enqueuer,
		lockTTL:     cfg.AnalyticsLockTTL,
		interval:    cfg.AnalyticsTickInterval,
		lookback:    cfg.AnalyticsLookback,
		minInterval: cfg.AnalyticsMinInterval,
		stagger:     cfg.AnalyticsStagger,
		logger:      slog.Default(),
		now:         time.Now,
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 5 * time.Minute
	}
	if s.interval <= 0 {
		s.interval = 5 * time.Minute
	}
	if s.lookback <= 0 {
		s.lookback = 7 * 24 * time.Hour
	}
	if s.minInterval <= 0 {
		s.minInterval = 6 * time.Hour
	}
	if s.stagger <= 0 {
		s.stagger = time.Second
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run ticks on the configured interval until ctx is cancelled.
func (s *AnalyticsScheduler) Run(ctx context.Context) error {
	return loop(ctx, s.interval, s.logger, "analytics", s.Tick)
}

// Tick enqueues one metrics job per stale post, staggered so the batch does
// not burst the platform rate limiters.
func (s *AnalyticsScheduler) Tick(ctx context.Context) error {
	return runExclusive(ctx, s.locker, analyticsLockKey, s.lockTTL, s.logger, func(ctx context.Context) error {
		now := s.now()

		posts, err := s.repo.StalePosts(ctx, now.Add(-s.lookback), now.Add(-s.minInterval))
		if err != nil {
			return fmt.Errorf("failed to query stale posts: %w", err)
		}

		// Staleness first: never-updated posts lead, then oldest update;
		// within a group the older publication goes first.
		sort.SliceStable(posts, func(i, j int) bool {
			a, b := posts[i].MetricsUpdatedAt, posts[j].MetricsUpdatedAt
			switch {
			case a == nil && b != nil:
				return true
			case a != nil && b == nil:
				return false
			case a != nil && b != nil && !a.Equal(*b):
				return a.Before(*b)
			}
			return posts[i].PublishedAt.Before(posts[j].PublishedAt)
		})

		s.logger.DebugContext(ctx, "analytics tick",
			slog.Int("stale_posts", len(posts)))

		for i, post := range posts {
			job := pipeline.AnalyticsJob{PostID: post.ID, TenantID: post.TenantID}
			err := s.enqueuer.Enqueue(ctx, job,
				queue.WithQueue("analytics"),
				queue.WithDelay(time.Duration(i)*s.stagger),
				queue.WithIdempotencyKey(fmt.Sprintf("analytics:%s", post.ID)))
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to enqueue metrics refresh",
					logger.PostID(post.ID),
					logger.TenantID(post.TenantID),
					logger.Error(err))
			}
		}
		return nil
	})
}
