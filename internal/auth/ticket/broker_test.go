package ticket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()

	store := NewMemoryStore()
	store.Start()
	t.Cleanup(store.Stop)

	return NewBroker(store, DefaultTTL)
}

func TestBrokerIssueConsume(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)

	id, err := b.Issue(ctx, 42, "alice")
	require.NoError(t, err)
	require.NoError(t, uuid.Validate(id))

	got, err := b.Consume(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(42), got.UserID)
	require.Equal(t, "alice", got.Username)
}

func TestBrokerSingleUse(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)

	id, err := b.Issue(ctx, 1, "bob")
	require.NoError(t, err)

	_, err = b.Consume(ctx, id)
	require.NoError(t, err)

	// Replay is indistinguishable from a made-up id.
	_, err = b.Consume(ctx, id)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestBrokerUnknownID(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)

	_, err := b.Consume(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrInvalid)
}

func TestBrokerBlankID(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)

	_, err := b.Consume(ctx, "")
	require.ErrorIs(t, err, ErrMissing)
}

func TestBrokerExpiry(t *testing.T) {
	ctx := context.Background()

	store := NewMemoryStore()
	store.Start()
	t.Cleanup(store.Stop)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := NewBroker(store, DefaultTTL)
	b.Now = func() time.Time { return now }

	t.Run("valid just inside the window", func(t *testing.T) {
		id, err := b.Issue(ctx, 1, "bob")
		require.NoError(t, err)

		now = now.Add(29 * time.Second)
		_, err = b.Consume(ctx, id)
		require.NoError(t, err)
	})

	t.Run("expired just outside the window", func(t *testing.T) {
		id, err := b.Issue(ctx, 1, "bob")
		require.NoError(t, err)

		now = now.Add(31 * time.Second)
		_, err = b.Consume(ctx, id)
		require.ErrorIs(t, err, ErrExpired)

		// Expired consumption still burned the ticket.
		_, err = b.Consume(ctx, id)
		require.ErrorIs(t, err, ErrInvalid)
	})
}

func TestBrokerTicketsAreDistinct(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)

	a, err := b.Issue(ctx, 1, "bob")
	require.NoError(t, err)
	c, err := b.Issue(ctx, 1, "bob")
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	// Consuming one leaves the other live.
	_, err = b.Consume(ctx, a)
	require.NoError(t, err)
	_, err = b.Consume(ctx, c)
	require.NoError(t, err)
}
