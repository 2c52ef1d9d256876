package distlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker implements Locker with the same semantics as the Redis Lock,
// for tests and single-process development. Expiry is evaluated lazily on
// access.
type MemoryLocker struct {
	mu    sync.Mutex
	owner string
	locks map[string]memoryLease
}

type memoryLease struct {
	owner     string
	expiresAt time.Time
}

// NewMemoryLocker creates an in-memory locker with its own owner token.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		owner: uuid.NewString(),
		locks: make(map[string]memoryLease),
	}
}

func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lease, ok := m.locks[key]; ok && lease.expiresAt.After(time.Now()) {
		return false
	}
	m.locks[key] = memoryLease{owner: m.owner, expiresAt: time.Now().Add(ttl)}
	return true
}

func (m *MemoryLocker) Release(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.locks[key]
	if !ok || lease.owner != m.owner || !lease.expiresAt.After(time.Now()) {
		return false
	}
	delete(m.locks, key)
	return true
}

func (m *MemoryLocker) Extend(ctx context.Context, key string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.locks[key]
	if !ok || lease.owner != m.owner || !lease.expiresAt.After(time.Now()) {
		return false
	}
	lease.expiresAt = time.Now().Add(ttl)
	m.locks[key] = lease
	return true
}

// IsOwnedByUs reports whether the key is currently leased by this instance.
func (m *MemoryLocker) IsOwnedByUs(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.locks[key]
	return ok && lease.owner == m.owner && lease.expiresAt.After(time.Now())
}

// Holder returns the owner token holding the key, or ErrNotHeld.
func (m *MemoryLocker) Holder(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.locks[key]
	if !ok || !lease.expiresAt.After(time.Now()) {
		return "", ErrNotHeld
	}
	return lease.owner, nil
}

// InjectHolder force-sets a lease as if another process held the key.
// Test helper for exercising owner-safety rules.
func (m *MemoryLocker) InjectHolder(key, owner string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = memoryLease{owner: owner, expiresAt: time.Now().Add(ttl)}
}
