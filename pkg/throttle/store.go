package throttle

import (
	"context"
	"time"
)

// Increment describes one counter bump with its expiry refresh.
type Increment struct {
	Key string
	TTL time.Duration
}

// Store is the counter storage contract. Implementations must make
// Increment atomic across all keys in the batch.
type Store interface {
	// Counts returns the current value for each key, zero for missing keys,
	// in the same order as the input.
	Counts(ctx context.Context, keys []string) ([]int64, error)

	// Increment atomically increments every key and (re)sets its expiry.
	Increment(ctx context.Context, incrs []Increment) error
}
