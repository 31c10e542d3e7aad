package authkit

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/authkit/refresh"
)

func TestSweeperRemovesExpiredRecords(t *testing.T) {
	store := refresh.NewMemoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	expired := refresh.Token{
		Token:     "expired-token",
		OwnerID:   "user-1",
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	live := refresh.Token{
		Token:     "live-token",
		OwnerID:   "user-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.Insert(ctx, expired); err != nil {
		t.Fatalf("insert expired: %v", err)
	}
	if err := store.Insert(ctx, live); err != nil {
		t.Fatalf("insert live: %v", err)
	}

	manager := refresh.NewManager(store, time.Hour)

	var observed int
	s := newSweeper(time.Hour, manager, func(removed int) { observed = removed })
	t.Cleanup(s.Close)

	s.sweep(ctx)

	if observed != 1 {
		t.Fatalf("afterRun removed = %d, want 1", observed)
	}
	if _, err := store.FindByToken(ctx, "expired-token"); err == nil {
		t.Fatal("expired record should be gone")
	}
	if _, err := store.FindByToken(ctx, "live-token"); err != nil {
		t.Fatalf("live record should survive: %v", err)
	}
}

func TestSweeperLogsAndContinuesOnFailure(t *testing.T) {
	manager := refresh.NewManager(failingStore{}, time.Hour)

	called := false
	s := newSweeper(time.Hour, manager, func(int) { called = true })
	t.Cleanup(s.Close)

	// Must not panic or propagate; afterRun is skipped on failure.
	s.sweep(context.Background())

	if called {
		t.Fatal("afterRun must not fire when the sweep fails")
	}
}

func TestSweeperCloseIsIdempotent(t *testing.T) {
	s := newSweeper(time.Hour, refresh.NewManager(refresh.NewMemoryStore(), time.Hour), nil)
	s.Close()
	s.Close()
}

type failingStore struct{}

func (failingStore) Insert(context.Context, refresh.Token) error { return refresh.ErrStoreUnavailable }

func (failingStore) FindByToken(context.Context, string) (refresh.Token, error) {
	return refresh.Token{}, refresh.ErrStoreUnavailable
}

func (failingStore) TakeByToken(context.Context, string) (refresh.Token, error) {
	return refresh.Token{}, refresh.ErrStoreUnavailable
}

func (failingStore) DeleteByToken(context.Context, string) error { return refresh.ErrStoreUnavailable }

func (failingStore) DeleteByOwner(context.Context, string) error { return refresh.ErrStoreUnavailable }

func (failingStore) DeleteExpiredBefore(context.Context, time.Time) (int, error) {
	return 0, refresh.ErrStoreUnavailable
}
