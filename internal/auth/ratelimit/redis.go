package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts windows in Redis so the limit holds across replicas.
// The key's TTL is set when the first hit of a window lands, matching the
// fixed-window semantics of MemoryStore.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	full := r.prefix + key

	n, err := r.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, err
	}

	if n == 1 {
		// First hit opens the window.
		if err := r.client.Expire(ctx, full, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}
