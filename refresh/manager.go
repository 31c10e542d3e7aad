package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authkit/internal"
)

// ErrExpired is returned for a presented token whose record exists but is
// past expiry. The record is deleted as a side effect, so a retry with the
// same token observes ErrNotFound.
var ErrExpired = errors.New("refresh token expired")

// Manager owns the refresh-token lifecycle over a [Store]: issuance,
// validation, one-shot consumption for rotation, and bulk revocation.
// It generates tokens but never decides who may hold them; ownership checks
// belong to the caller.
type Manager struct {
	store    Store
	lifetime time.Duration
}

// NewManager creates a lifecycle manager. lifetime is the fixed validity
// window applied to every issued token.
func NewManager(store Store, lifetime time.Duration) *Manager {
	return &Manager{
		store:    store,
		lifetime: lifetime,
	}
}

// Issue mints a fresh opaque token for the owner and persists its record.
func (m *Manager) Issue(ctx context.Context, ownerID string) (Token, error) {
	raw, err := internal.NewOpaqueToken()
	if err != nil {
		return Token{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	tok := Token{
		Token:     raw,
		OwnerID:   ownerID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.lifetime),
	}

	if err := m.store.Insert(ctx, tok); err != nil {
		return Token{}, err
	}

	return tok, nil
}

// Validate looks up the record without consuming it. Expired records are
// deleted before the failure surfaces.
func (m *Manager) Validate(ctx context.Context, token string) (Token, error) {
	tok, err := m.store.FindByToken(ctx, token)
	if err != nil {
		return Token{}, err
	}

	if tok.Expired(time.Now()) {
		// Best effort: the record is dead either way.
		_ = m.store.DeleteByToken(ctx, token)
		return Token{}, ErrExpired
	}

	return tok, nil
}

// Consume atomically takes the record out of the store and returns it.
// Exactly one of any number of concurrent Consume calls for the same token
// succeeds; the rest see ErrNotFound. An expired record is still consumed
// but reported as ErrExpired.
func (m *Manager) Consume(ctx context.Context, token string) (Token, error) {
	tok, err := m.store.TakeByToken(ctx, token)
	if err != nil {
		return Token{}, err
	}

	if tok.Expired(time.Now()) {
		return Token{}, ErrExpired
	}

	return tok, nil
}

// RevokeAllForOwner removes every live token of the owner. Idempotent.
func (m *Manager) RevokeAllForOwner(ctx context.Context, ownerID string) error {
	return m.store.DeleteByOwner(ctx, ownerID)
}

// SweepExpired purges records already past expiry and returns how many were
// removed.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	return m.store.DeleteExpiredBefore(ctx, time.Now())
}

// Lifetime returns the configured token lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}
