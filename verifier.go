package authkit

import (
	"context"
	"fmt"
	"log"

	"github.com/MrEthical07/authkit/password"
)

// credentialVerifier is the leaf that turns (identifier, secret) into a
// verified [Identity]. Lookup failure and hash mismatch collapse into the
// same ErrInvalidCredentials so the response does not reveal whether the
// identifier exists.
type credentialVerifier struct {
	provider IdentityProvider
	hasher   *password.Argon2
}

func newCredentialVerifier(provider IdentityProvider, hasher *password.Argon2) *credentialVerifier {
	return &credentialVerifier{
		provider: provider,
		hasher:   hasher,
	}
}

func (v *credentialVerifier) verify(ctx context.Context, identifier, secret string) (Identity, error) {
	identity, err := v.provider.GetByIdentifier(ctx, identifier)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	ok, err := v.hasher.Verify(secret, identity.PasswordHash)
	if err != nil || !ok {
		return Identity{}, ErrInvalidCredentials
	}

	// A verified identity without roles is a provider data bug, not a bad
	// credential; surface it as internal so it gets fixed instead of retried.
	if len(identity.Roles) == 0 {
		return Identity{}, fmt.Errorf("%w: identity %q has no roles", ErrInternal, identity.ID)
	}

	return identity, nil
}

// maybeUpgradeHash rehashes the secret under current cost parameters when
// the stored hash is weaker. Best effort: failures are logged and never
// block the login that triggered the upgrade.
func (v *credentialVerifier) maybeUpgradeHash(ctx context.Context, identity Identity, secret string) {
	needsUpgrade, err := v.hasher.NeedsUpgrade(identity.PasswordHash)
	if err != nil || !needsUpgrade {
		return
	}

	upgraded, err := v.hasher.Hash(secret)
	if err != nil {
		log.Print("authkit: password hash upgrade generation failed")
		return
	}

	if err := v.provider.UpdatePasswordHash(ctx, identity.ID, upgraded); err != nil {
		log.Print("authkit: password hash upgrade update failed")
	}
}
