package authkit

import (
	"context"
	"time"
)

// Identity is the externally-owned account record the engine authenticates
// against. The engine only reads identities; creation, update, and deletion
// belong to the integrating user-management system.
//
// Invariants expected from the provider: Username is unique, Roles is
// non-empty, PasswordHash is an Argon2id PHC string.
type Identity struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []string
}

// IdentityProvider is the interface callers must implement to integrate
// authkit with their user database. GetByIdentifier resolves a login
// identifier (username, or a secondary identifier such as email — the
// provider decides) to an [Identity].
//
// UpdatePasswordHash is only called for best-effort transparent hash
// upgrades on login; it must never be required for login to succeed.
type IdentityProvider interface {
	GetByIdentifier(ctx context.Context, identifier string) (Identity, error)
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error
}

// TokenPair is returned by [Engine.Login] and [Engine.Refresh]: a signed
// access token and the opaque refresh token that can later rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by [Engine.Validate]. It carries the claims of a
// verified access token; no store lookup is involved.
type AuthResult struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
