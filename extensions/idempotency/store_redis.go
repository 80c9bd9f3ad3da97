package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces fingerprints in a shared Redis instance.
const redisKeyPrefix = "paykit:idem:"

// RedisStore is a Store backed by Redis, letting retries of one logical
// create resolve to the same key across processes.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetOrSet implements Store using SET NX followed by a read, so concurrent
// callers for the same fingerprint all observe the first writer's key.
func (s *RedisStore) GetOrSet(ctx context.Context, fingerprint, candidate string, ttl time.Duration) (string, error) {
	key := redisKeyPrefix + fingerprint

	set, err := s.client.SetNX(ctx, key, candidate, ttl).Result()
	if err != nil {
		return "", err
	}
	if set {
		return candidate, nil
	}

	existing, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Expired between SetNX and Get; fall back to our candidate.
		return candidate, nil
	}
	if err != nil {
		return "", err
	}
	return existing, nil
}
