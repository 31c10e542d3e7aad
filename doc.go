// Package authkit provides an authentication and token-lifecycle engine:
// credential verification against a caller-supplied identity provider,
// short-lived HS256-signed JWT access tokens, and long-lived rotating opaque
// refresh tokens tracked in Redis (or any custom [refresh.Store]).
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenPair, AuthResult, MetricsSnapshot). Token persistence
// lives in the refresh subpackage; rate limiting and random-token generation
// live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Own user records. Identities are read through [IdentityProvider]; the
//     engine never creates, lists, or deletes users.
//   - Keep an in-process cache of refresh-token state across calls. The
//     refresh store is the single source of truth.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//
// # Session model
//
// At most one live refresh token exists per identity at any instant. Login
// and rotation both revoke every prior token for the owner before a new one
// is issued, and rotation consumes the presented token atomically so that of
// two racing refresh calls exactly one can win.
package authkit
