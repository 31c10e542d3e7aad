package authkit

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by the Engine matches exactly one of
// these via errors.Is; sub-reasons below wrap ErrAuthenticationFailed so
// callers can branch on the kind and observability layers on the reason.
var (
	// ErrValidation reports malformed or missing input fields. Caller-correctable.
	ErrValidation = errors.New("invalid input")
	// ErrAuthenticationFailed reports bad credentials or an invalid, expired,
	// or mismatched token. Surfaced to callers as "unauthenticated".
	ErrAuthenticationFailed = errors.New("unauthenticated")
	// ErrRateLimited reports a tripped throttle, surfaced distinctly so
	// clients can back off.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrConfiguration reports invalid startup configuration. Fatal; never
	// occurs mid-request.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInternal reports store or transport failures that establish nothing
	// about a credential's validity.
	ErrInternal = errors.New("internal auth failure")
)

// Sub-reasons of ErrAuthenticationFailed.
var (
	// ErrInvalidCredentials is returned when the identifier is unknown or the
	// secret does not match the stored hash.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthenticationFailed)
	// ErrTokenEmpty is returned for a blank access token.
	ErrTokenEmpty = fmt.Errorf("%w: empty access token", ErrAuthenticationFailed)
	// ErrTokenInvalid is returned for malformed, unsigned, or wrongly-signed
	// access tokens.
	ErrTokenInvalid = fmt.Errorf("%w: invalid access token", ErrAuthenticationFailed)
	// ErrTokenExpired is returned for access tokens past their expiry.
	ErrTokenExpired = fmt.Errorf("%w: access token expired", ErrAuthenticationFailed)
	// ErrRefreshInvalid is returned when the presented refresh token is not in
	// the store.
	ErrRefreshInvalid = fmt.Errorf("%w: invalid refresh token", ErrAuthenticationFailed)
	// ErrRefreshExpired is returned for an expired refresh token; the record
	// is deleted before the failure surfaces, so a retry observes ErrRefreshInvalid.
	ErrRefreshExpired = fmt.Errorf("%w: refresh token expired", ErrAuthenticationFailed)
	// ErrRefreshOwnerMismatch is returned when the presented refresh token
	// belongs to a different identity than the authenticated caller.
	ErrRefreshOwnerMismatch = fmt.Errorf("%w: refresh token does not match authenticated user", ErrAuthenticationFailed)
)

// Throttle scopes of ErrRateLimited.
var (
	// ErrLoginRateLimited is returned when the failed-login budget for an
	// identifier (or IP) is exhausted.
	ErrLoginRateLimited = fmt.Errorf("%w: login", ErrRateLimited)
	// ErrRefreshRateLimited is returned when the refresh throttle trips,
	// before any token validation or store I/O.
	ErrRefreshRateLimited = fmt.Errorf("%w: refresh", ErrRateLimited)
)

// ErrEngineNotReady is returned when an Engine method is called on a nil or
// incompletely-built engine.
var ErrEngineNotReady = errors.New("engine not initialized")
