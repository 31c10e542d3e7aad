// Package jwt wraps github.com/golang-jwt/jwt/v5 behind a small HS256-only
// manager for access tokens.
//
// The allowed algorithm set is pinned to HS256 at parse time, so a token
// claiming alg "none" or any asymmetric method is rejected before the key
// function runs. Expired-but-otherwise-valid tokens surface as
// [ErrExpiredToken], distinct from [ErrInvalidToken], so callers can tell a
// client to refresh instead of re-authenticate.
package jwt
