package refresh

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for the presented token.
var ErrNotFound = errors.New("refresh token not found")

// ErrStoreUnavailable is returned when the backing store cannot be reached.
// It establishes nothing about the token's validity.
var ErrStoreUnavailable = errors.New("refresh store unavailable")

// Store persists refresh-token records. Implementations must be safe for
// concurrent use.
//
// TakeByToken is the serialization point of the rotation protocol: it
// deletes the record and returns it only if it existed, atomically, so two
// concurrent calls for the same token see exactly one success.
type Store interface {
	// Insert saves a new record. The token string is assumed unique; a
	// collision over 256 bits of entropy is not a handled case.
	Insert(ctx context.Context, tok Token) error

	// FindByToken returns the record for the token, or ErrNotFound.
	FindByToken(ctx context.Context, token string) (Token, error)

	// TakeByToken atomically deletes the record and returns it. Returns
	// ErrNotFound if no record existed, in which case nothing was deleted.
	TakeByToken(ctx context.Context, token string) (Token, error)

	// DeleteByToken removes the record if present. Deleting an absent token
	// is not an error.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByOwner removes every record belonging to the owner. Idempotent;
	// an owner with no records is a no-op.
	DeleteByOwner(ctx context.Context, ownerID string) error

	// DeleteExpiredBefore removes records whose expiry is at or before the
	// cutoff and returns how many were removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
}
