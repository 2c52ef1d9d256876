package distlock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker is the mutual-exclusion contract used by the schedulers. Lock is
// the Redis implementation; MemoryLocker backs tests.
type Locker interface {
	// Acquire takes the lock if it is free. Returns false when the lock is
	// held elsewhere or the store is unreachable (fail closed).
	Acquire(ctx context.Context, key string, ttl time.Duration) bool

	// Release deletes the lock only if this instance still owns it.
	Release(ctx context.Context, key string) bool

	// Extend re-sets the TTL only if this instance still owns the lock.
	Extend(ctx context.Context, key string, ttl time.Duration) bool
}

// Lua scripts for atomic check-owner-then-act operations. A plain GET
// followed by DEL/EXPIRE would race with lock expiry and reassignment.
var (
	releaseScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
else
  return 0
end
`)

	extendScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('pexpire', KEYS[1], ARGV[2])
else
  return 0
end
`)
)

// Lock is a Redis-backed distributed lock. Each Lock instance has its own
// owner token, so two instances in the same process still exclude each other.
type Lock struct {
	client redis.UniversalClient
	owner  string
	logger *slog.Logger
}

// Option configures a Lock.
type Option func(*Lock)

// WithLogger sets the logger used to report store errors. Store errors are
// never surfaced to callers; Acquire simply reports false.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lock) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Lock with a fresh owner token.
func New(client redis.UniversalClient, opts ...Option) *Lock {
	l := &Lock{
		client: client,
		owner:  uuid.NewString(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire sets the key to our owner token only if absent (SET NX with TTL).
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		l.logger.ErrorContext(ctx, "lock acquire failed, treating as not acquired",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}
	return ok
}

// Release deletes the key only if it still holds our owner token.
func (l *Lock) Release(ctx context.Context, key string) bool {
	n, err := releaseScript.Run(ctx, l.client, []string{key}, l.owner).Int()
	if err != nil {
		l.logger.ErrorContext(ctx, "lock release failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}
	return n == 1
}

// Extend re-sets the TTL only if the key still holds our owner token.
func (l *Lock) Extend(ctx context.Context, key string, ttl time.Duration) bool {
	n, err := extendScript.Run(ctx, l.client, []string{key}, l.owner, ttl.Milliseconds()).Int()
	if err != nil {
		l.logger.ErrorContext(ctx, "lock extend failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}
	return n == 1
}

// IsOwnedByUs reports whether the key currently holds our owner token.
// Read-only diagnostic.
func (l *Lock) IsOwnedByUs(ctx context.Context, key string) bool {
	val, err := l.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return val == l.owner
}

// Holder returns the owner token currently holding the key, or ErrNotHeld
// when the lock is free. Read-only diagnostic.
func (l *Lock) Holder(ctx context.Context, key string) (string, error) {
	val, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotHeld
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Owner returns this instance's owner token.
func (l *Lock) Owner() string {
	return l.owner
}
