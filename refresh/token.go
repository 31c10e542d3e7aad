package refresh

import "time"

// Token is a server-tracked refresh-token record. The Token string is the
// opaque credential handed to the client; everything else is server-side
// state keyed by it.
type Token struct {
	Token     string
	OwnerID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is past its expiry at the given
// instant. Expiry is exclusive: a record expiring exactly at now is expired.
func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
