package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// defaultKeyPrefix namespaces limiter keys inside a shared Redis instance.
const defaultKeyPrefix = "ratelimit:"

// RedisWindowStore is the shared WindowStore backend. Each key owns a sorted
// set of (timestamp, nonce) members; Record trims, inserts, counts, and
// refreshes the set's expiry inside one transactional pipeline so that
// concurrent checks from other processes cannot interleave mid-sequence.
type RedisWindowStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisWindowStore.
type RedisOption func(*RedisWindowStore)

// WithKeyPrefix overrides the Redis key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisWindowStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisWindowStore creates a sorted-set window store over the given client.
func NewRedisWindowStore(client redis.UniversalClient, opts ...RedisOption) *RedisWindowStore {
	s := &RedisWindowStore{
		client: client,
		prefix: defaultKeyPrefix,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewRedisLimiter creates a sliding-window limiter backed by Redis.
func NewRedisLimiter(client redis.UniversalClient, opts ...RedisOption) *SlidingLimiter {
	return NewSlidingLimiter(NewRedisWindowStore(client, opts...))
}

// Record implements WindowStore.
func (s *RedisWindowStore) Record(ctx context.Context, key string, now, windowStart time.Time, ttl time.Duration) (int, error) {
	// The nonce keeps two actions in the same nanosecond from collapsing
	// into one member.
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, s.prefix+key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, s.prefix+key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, s.prefix+key)
	pipe.Expire(ctx, s.prefix+key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return int(card.Val()), nil
}

// OldestInWindow implements WindowStore.
func (s *RedisWindowStore) OldestInWindow(ctx context.Context, key string) (time.Time, error) {
	members, err := s.client.ZRangeWithScores(ctx, s.prefix+key, 0, 0).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if len(members) == 0 {
		return time.Time{}, nil
	}
	return time.Unix(0, int64(members[0].Score)), nil
}

// Delete implements WindowStore.
func (s *RedisWindowStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
