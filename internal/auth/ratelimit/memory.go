package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process WindowStore used for single-instance
// deployments and tests. Use RedisStore when running more than one
// replica behind the gateway.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry

	// Now is overridable for tests.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

type windowEntry struct {
	count   int64
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowEntry),
		Now:     time.Now,
	}
}

func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := m.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &windowEntry{resetAt: now.Add(window)}
		m.entries[key] = e
	}
	e.count++
	return e.count, nil
}

// Start launches the background sweeper that drops lapsed windows so
// one-off keys don't accumulate. Call Stop during shutdown.
func (m *MemoryStore) Start(interval time.Duration) {
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go func() {
		defer close(m.doneCh)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop signals the sweeper to exit and waits for it to finish.
func (m *MemoryStore) Stop() {
	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	<-m.doneCh
}

func (m *MemoryStore) sweep() {
	now := m.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if now.After(e.resetAt) {
			delete(m.entries, key)
		}
	}
}
