package distlock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/core/pkg/distlock"
)

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	t.Parallel()

	locker := distlock.NewMemoryLocker()
	ctx := context.Background()

	require.True(t, locker.Acquire(ctx, "tick", time.Minute))
	assert.False(t, locker.Acquire(ctx, "tick", time.Minute), "second acquire must fail while held")

	// A different key is independent.
	assert.True(t, locker.Acquire(ctx, "other", time.Minute))
}

func TestMemoryLocker_ConcurrentAcquire(t *testing.T) {
	t.Parallel()

	locker := distlock.NewMemoryLocker()
	ctx := context.Background()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if locker.Acquire(ctx, "tick", time.Minute) {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load(), "exactly one concurrent acquire may win")
}

func TestMemoryLocker_ReleaseByNonOwner(t *testing.T) {
	t.Parallel()

	locker := distlock.NewMemoryLocker()
	ctx := context.Background()

	// Simulate a lock held by another process.
	locker.InjectHolder("tick", "some-other-instance", time.Minute)

	assert.False(t, locker.Release(ctx, "tick"), "release by a non-owner must fail")

	holder, err := locker.Holder(ctx, "tick")
	require.NoError(t, err)
	assert.Equal(t, "some-other-instance", holder, "the key must not be deleted")
}

func TestMemoryLocker_ReleaseThenReacquire(t *testing.T) {
	t.Parallel()

	locker := distlock.NewMemoryLocker()
	ctx := context.Background()

	require.True(t, locker.Acquire(ctx, "tick", time.Minute))
	require.True(t, locker.IsOwnedByUs(ctx, "tick"))
	require.True(t, locker.Release(ctx, "tick"))

	_, err := locker.Holder(ctx, "tick")
	assert.ErrorIs(t, err, distlock.ErrNotHeld)

	assert.True(t, locker.Acquire(ctx, "tick", time.Minute))
}

func TestMemoryLocker_ExpiryFreesLock(t *testing.T) {
	t.Parallel()

	locker := distlock.NewMemoryLocker()
	ctx := context.Background()

	require.True(t, locker.Acquire(ctx, "tick", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	// Lease expired: the lock is free again and the late release is a no-op.
	assert.True(t, locker.Acquire(ctx, "tick", time.Minute))

	other := distlock.NewMemoryLocker()
	assert.False(t, other.Release(ctx, "tick"))
}

func TestMemoryLocker_Extend(t *testing.T) {
	t.Parallel()

	locker := distlock.NewMemoryLocker()
	ctx := context.Background()

	require.True(t, locker.Acquire(ctx, "tick", 50*time.Millisecond))
	require.True(t, locker.Extend(ctx, "tick", time.Minute))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, locker.IsOwnedByUs(ctx, "tick"), "extended lease must outlive the original TTL")

	// Extending a lock held by someone else fails.
	locker.InjectHolder("foreign", "other", time.Minute)
	assert.False(t, locker.Extend(ctx, "foreign", time.Minute))
}

func TestLock_OwnerTokensAreUnique(t *testing.T) {
	t.Parallel()

	// Two Lock instances over the same client must not share owner tokens,
	// otherwise they could release each other's locks.
	a := distlock.New(nil)
	b := distlock.New(nil)
	assert.NotEqual(t, a.Owner(), b.Owner())
	assert.NotEmpty(t, a.Owner())
}
