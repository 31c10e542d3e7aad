package internal

import (
	"crypto/rand"
	"encoding/base64"
)

// opaqueTokenBytes is the entropy of a refresh token. 32 bytes keeps the
// token far above brute-force reach while staying cookie-friendly once
// base64url encoded (43 characters).
const opaqueTokenBytes = 32

// NewOpaqueToken returns a cryptographically random token string. The value
// carries no structure; all meaning lives in the store record it maps to.
func NewOpaqueToken() (string, error) {
	var raw [opaqueTokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
