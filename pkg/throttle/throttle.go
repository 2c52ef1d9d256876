package throttle

import (
	"context"
	"fmt"
	"time"
)

// Reason identifies which window denied a request.
type Reason string

const (
	ReasonMinuteLimit Reason = "minute_limit"
	ReasonHourLimit   Reason = "hour_limit"
	ReasonDayLimit    Reason = "day_limit"
)

// Result is the outcome of a limit check. When denied, Reason names the
// exhausted window and RetryAfter is the time to that window's boundary.
type Result struct {
	Allowed    bool
	Reason     Reason
	Current    int64
	Limit      int
	RetryAfter time.Duration
}

// Limiter enforces per-(platform, account) request limits over a Store.
type Limiter struct {
	store  Store
	limits map[string]Limits
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithPlatformLimits overrides the limits for a platform.
func WithPlatformLimits(platform string, limits Limits) Option {
	return func(l *Limiter) {
		l.limits[platform] = limits
	}
}

// WithClock overrides the time source for window boundary math. Test hook.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter creates a limiter with the built-in per-platform limit table.
func NewLimiter(store Store, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	l := &Limiter{
		store:  store,
		limits: defaultPlatformLimits(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Check reads all three window counters without incrementing and denies if
// any window is at or above its limit. Windows are evaluated shortest first
// so the reported RetryAfter is the soonest recovery point.
func (l *Limiter) Check(ctx context.Context, platform, accountID string) (*Result, error) {
	limits := l.LimitsFor(platform)
	now := l.now()

	counts, err := l.store.Counts(ctx, l.keys(platform, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit counters for %s/%s: %w", platform, accountID, err)
	}

	checks := []struct {
		reason     Reason
		count      int64
		limit      int
		retryAfter time.Duration
	}{
		{ReasonMinuteLimit, counts[0], limits.PerMinute, untilNextMinute(now)},
		{ReasonHourLimit, counts[1], limits.PerHour, untilNextHour(now)},
		{ReasonDayLimit, counts[2], limits.PerDay, untilNextDay(now)},
	}

	for _, c := range checks {
		if c.count >= int64(c.limit) {
			return &Result{
				Allowed:    false,
				Reason:     c.reason,
				Current:    c.count,
				Limit:      c.limit,
				RetryAfter: c.retryAfter,
			}, nil
		}
	}

	return &Result{Allowed: true, Current: counts[0], Limit: limits.PerMinute}, nil
}

// Record increments all three window counters in one atomic batch. Expiry
// is refreshed to window length plus slack so counters never leak.
func (l *Limiter) Record(ctx context.Context, platform, accountID string) error {
	keys := l.keys(platform, accountID)
	incrs := []Increment{
		{Key: keys[0], TTL: time.Minute + expirySlack},
		{Key: keys[1], TTL: time.Hour + expirySlack},
		{Key: keys[2], TTL: 24*time.Hour + expirySlack},
	}

	if err := l.store.Increment(ctx, incrs); err != nil {
		return fmt.Errorf("failed to record request for %s/%s: %w", platform, accountID, err)
	}
	return nil
}

// LimitsFor returns the limit set for the platform, falling back to the
// conservative defaults for unknown platforms.
func (l *Limiter) LimitsFor(platform string) Limits {
	if limits, ok := l.limits[platform]; ok {
		return limits
	}
	return DefaultLimits
}

// expirySlack keeps counters alive slightly past their window so a check at
// the boundary still sees them, while idle counters self-expire.
const expirySlack = 10 * time.Second

func (l *Limiter) keys(platform, accountID string) []string {
	prefix := fmt.Sprintf("throttle:%s:%s", platform, accountID)
	return []string{prefix + ":minute", prefix + ":hour", prefix + ":day"}
}

func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}

func untilNextHour(now time.Time) time.Duration {
	return now.Truncate(time.Hour).Add(time.Hour).Sub(now)
}

// untilNextDay returns the time to the next UTC midnight.
func untilNextDay(now time.Time) time.Duration {
	utc := now.UTC()
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return midnight.Sub(utc)
}
