package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps tickets in Redis so any auth replica can redeem a
// ticket issued by another. GETDEL gives the same single-winner guarantee
// as the in-memory store.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Put(ctx context.Context, id string, t Ticket, ttl time.Duration) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+id, payload, ttl).Err()
}

func (r *RedisStore) Take(ctx context.Context, id string) (Ticket, bool, error) {
	payload, err := r.client.GetDel(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Ticket{}, false, nil
	}
	if err != nil {
		return Ticket{}, false, err
	}

	var t Ticket
	if err := json.Unmarshal(payload, &t); err != nil {
		return Ticket{}, false, err
	}
	return t, true, nil
}
