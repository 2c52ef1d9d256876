package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/postpilot/core/pkg/distlock"
	"github.com/postpilot/core/pkg/logger"
	"github.com/postpilot/core/pkg/queue"
)

// Enqueuer is the slice of the queue enqueuer the schedulers need.
// Satisfied by *queue.Enqueuer.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error
}

// runExclusive executes fn under a cluster-wide lock. When the lock is held
// elsewhere the tick is skipped silently: another instance is running or
// recently ran, which is the normal case in a fleet. The lock is released
// on every exit path; the TTL covers crashes mid-tick.
func runExclusive(ctx context.Context, locker distlock.Locker, key string, ttl time.Duration, log *slog.Logger, fn func(ctx context.Context) error) error {
	if !locker.Acquire(ctx, key, ttl) {
		log.DebugContext(ctx, "tick skipped, lock held elsewhere",
			slog.String("lock_key", key))
		return nil
	}
	defer locker.Release(ctx, key)

	return fn(ctx)
}

// loop runs tick on a fixed interval until the context is cancelled. The
// first tick fires immediately so a fresh deployment does not wait a full
// interval before doing work.
func loop(ctx context.Context, interval time.Duration, log *slog.Logger, name string, tick func(ctx context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := tick(ctx); err != nil {
		log.ErrorContext(ctx, "scheduler tick failed",
			slog.String("scheduler", name),
			logger.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "scheduler shutting down",
				slog.String("scheduler", name))
			return ctx.Err()
		case <-ticker.C:
			if err := tick(ctx); err != nil {
				log.ErrorContext(ctx, "scheduler tick failed",
					slog.String("scheduler", name),
					logger.Error(err))
			}
		}
	}
}
