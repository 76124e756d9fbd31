package ticket

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an issued ticket stays redeemable.
const DefaultTTL = 30 * time.Second

// Broker issues ticket ids and enforces single-use redemption. Validity is
// checked here against IssuedAt rather than by store eviction, so a
// just-lapsed ticket still reports ErrExpired instead of ErrInvalid. The
// store keeps tickets around for twice the TTL and sweeps them after.
type Broker struct {
	store Store
	ttl   time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

func NewBroker(store Store, ttl time.Duration) *Broker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Broker{
		store: store,
		ttl:   ttl,
		Now:   time.Now,
	}
}

// Issue creates a ticket for the authenticated user and returns its id.
func (b *Broker) Issue(ctx context.Context, userID int64, username string) (string, error) {
	id := uuid.NewString()

	t := Ticket{
		UserID:   userID,
		Username: username,
		IssuedAt: b.Now().UTC(),
	}
	if err := b.store.Put(ctx, id, t, 2*b.ttl); err != nil {
		return "", err
	}
	return id, nil
}

// Consume redeems a ticket exactly once. The ticket is removed from the
// store regardless of whether it turns out to be expired.
func (b *Broker) Consume(ctx context.Context, id string) (Ticket, error) {
	if id == "" {
		return Ticket{}, ErrMissing
	}

	t, ok, err := b.store.Take(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	if !ok {
		return Ticket{}, ErrInvalid
	}

	if b.Now().Sub(t.IssuedAt) > b.ttl {
		return Ticket{}, ErrExpired
	}
	return t, nil
}

// TTL returns the configured validity window.
func (b *Broker) TTL() time.Duration { return b.ttl }
