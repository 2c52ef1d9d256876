package throttle

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store over Redis. Counts uses MGET; Increment runs
// all INCR+EXPIRE pairs in one MULTI/EXEC transaction so the three window
// counters always move together.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Counts(ctx context.Context, keys []string) ([]int64, error) {
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget counters: %w", err)
	}

	counts := make([]int64, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %q holds non-numeric value %q", keys[i], str)
		}
		counts[i] = n
	}
	return counts, nil
}

func (s *RedisStore) Increment(ctx context.Context, incrs []Increment) error {
	pipe := s.client.TxPipeline()
	for _, inc := range incrs {
		pipe.Incr(ctx, inc.Key)
		pipe.Expire(ctx, inc.Key, inc.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment counters: %w", err)
	}
	return nil
}
