package ticket

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps tickets in a TTL cache. Suitable for single-instance
// deployments; use RedisStore when the auth service runs replicated.
type MemoryStore struct {
	cache *ttlcache.Cache[string, Ticket]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: ttlcache.New[string, Ticket](),
	}
}

// Start launches the cache's expiration sweeper. Call Stop on shutdown.
func (m *MemoryStore) Start() {
	go m.cache.Start()
}

// Stop halts the expiration sweeper.
func (m *MemoryStore) Stop() {
	m.cache.Stop()
}

func (m *MemoryStore) Put(_ context.Context, id string, t Ticket, ttl time.Duration) error {
	m.cache.Set(id, t, ttl)
	return nil
}

func (m *MemoryStore) Take(_ context.Context, id string) (Ticket, bool, error) {
	item, ok := m.cache.GetAndDelete(id)
	if !ok || item == nil {
		return Ticket{}, false, nil
	}
	return item.Value(), true, nil
}
