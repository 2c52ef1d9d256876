package breaker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/core/pkg/breaker"
)

var errBoom = errors.New("boom")

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func fail(ctx context.Context) error { return errBoom }

func succeed(ctx context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	cb := breaker.New("instagram", breaker.WithFailureThreshold(3))
	ctx := context.Background()

	for range 2 {
		require.ErrorIs(t, cb.Do(ctx, fail), errBoom)
	}
	assert.Equal(t, breaker.StateClosed, cb.State())

	require.ErrorIs(t, cb.Do(ctx, fail), errBoom)
	assert.Equal(t, breaker.StateOpen, cb.State())
}

func TestCircuitBreaker_RejectsWhileOpen(t *testing.T) {
	t.Parallel()

	cb := breaker.New("twitter", breaker.WithFailureThreshold(1), breaker.WithResetTimeout(time.Minute))
	ctx := context.Background()

	require.ErrorIs(t, cb.Do(ctx, fail), errBoom)

	called := false
	err := cb.Do(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, breaker.ErrOpen)
	assert.False(t, called, "open breaker must not attempt the call")

	var openErr *breaker.OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "twitter", openErr.Name)
	assert.Greater(t, openErr.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, openErr.RetryAfter, time.Minute)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	cb := breaker.New("linkedin", breaker.WithFailureThreshold(3))
	ctx := context.Background()

	// Failures are consecutive, not cumulative: interleaved successes keep
	// the breaker closed indefinitely.
	for range 5 {
		require.ErrorIs(t, cb.Do(ctx, fail), errBoom)
		require.ErrorIs(t, cb.Do(ctx, fail), errBoom)
		require.NoError(t, cb.Do(ctx, succeed))
	}
	assert.Equal(t, breaker.StateClosed, cb.State())

	_, failures, _ := cb.Stats()
	assert.Equal(t, 0, failures)
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cb := breaker.New("openai",
		breaker.WithFailureThreshold(1),
		breaker.WithResetTimeout(30*time.Second),
		breaker.WithHalfOpenSuccessCount(2),
		breaker.WithClock(clock.Now),
	)
	ctx := context.Background()

	require.ErrorIs(t, cb.Do(ctx, fail), errBoom)
	require.Equal(t, breaker.StateOpen, cb.State())

	// Before the timeout elapses calls are still rejected.
	require.ErrorIs(t, cb.Do(ctx, succeed), breaker.ErrOpen)

	clock.Advance(31 * time.Second)

	// The next call transitions to half-open and is allowed through.
	require.NoError(t, cb.Do(ctx, succeed))
	assert.Equal(t, breaker.StateHalfOpen, cb.State())

	// The second consecutive success closes the breaker.
	require.NoError(t, cb.Do(ctx, succeed))
	assert.Equal(t, breaker.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cb := breaker.New("facebook",
		breaker.WithFailureThreshold(1),
		breaker.WithResetTimeout(10*time.Second),
		breaker.WithClock(clock.Now),
	)
	ctx := context.Background()

	require.ErrorIs(t, cb.Do(ctx, fail), errBoom)
	clock.Advance(11 * time.Second)

	// The probe fails: straight back to open.
	require.ErrorIs(t, cb.Do(ctx, fail), errBoom)
	assert.Equal(t, breaker.StateOpen, cb.State())
}

func TestCircuitBreaker_StateChangeHook(t *testing.T) {
	t.Parallel()

	var (
		mu          sync.Mutex
		transitions []string
	)

	cb := breaker.New("tiktok",
		breaker.WithFailureThreshold(1),
		breaker.WithStateChangeHook(func(name string, from, to breaker.State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, string(from)+"->"+string(to))
		}),
	)

	require.ErrorIs(t, cb.Do(context.Background(), fail), errBoom)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestRegistry_IsolatesDependencies(t *testing.T) {
	t.Parallel()

	reg := breaker.NewRegistry(breaker.WithFailureThreshold(1))
	ctx := context.Background()

	require.ErrorIs(t, reg.Get("instagram").Do(ctx, fail), errBoom)

	// Instagram's breaker is open, twitter's is untouched.
	assert.Equal(t, breaker.StateOpen, reg.Get("instagram").State())
	assert.Equal(t, breaker.StateClosed, reg.Get("twitter").State())

	// Get returns the same instance for the same name.
	assert.Same(t, reg.Get("instagram"), reg.Get("instagram"))
	assert.ElementsMatch(t, []string{"instagram", "twitter"}, reg.Names())
}

func TestCircuitBreaker_ConcurrentCalls(t *testing.T) {
	t.Parallel()

	cb := breaker.New("concurrent", breaker.WithFailureThreshold(100))
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Do(ctx, succeed)
			_ = cb.Do(ctx, fail)
		}()
	}
	wg.Wait()

	// No panics, state remains valid.
	state := cb.State()
	assert.Contains(t, []breaker.State{breaker.StateClosed, breaker.StateOpen, breaker.StateHalfOpen}, state)
}
