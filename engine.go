package authkit

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/MrEthical07/authkit/internal/rate"
	"github.com/MrEthical07/authkit/jwt"
	"github.com/MrEthical07/authkit/refresh"
)

// Engine orchestrates the three session flows — Login, Refresh, Logout —
// plus stateless access-token validation. Construct it through [Builder];
// after Build it is immutable and safe for concurrent use.
type Engine struct {
	config      Config
	verifier    *credentialVerifier
	jwtManager  *jwt.Manager
	refresh     *refresh.Manager
	rateLimiter *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics
	sweeper     *sweeper
}

// Close stops the engine's background goroutines: the audit dispatcher
// (after draining buffered events) and the expiry sweeper.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.sweeper != nil {
		e.sweeper.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies the credentials and establishes a fresh session: every
// prior refresh token of the identity is revoked before a new pair is
// issued, so at most one refresh token is live per identity at any instant.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (TokenPair, error) {
	if e == nil || e.verifier == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	if identifier == "" {
		return TokenPair{}, fmt.Errorf("%w: identifier required", ErrValidation)
	}
	if secret == "" {
		return TokenPair{}, fmt.Errorf("%w: secret required", ErrValidation)
	}

	ip := clientIPFromContext(ctx)

	if e.loginGuardActive() {
		if err := e.rateLimiter.CheckLogin(ctx, identifier, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
					return map[string]string{"identifier": identifier}
				})
				return TokenPair{}, ErrLoginRateLimited
			}
			return TokenPair{}, fmt.Errorf("%w: login limiter: %v", ErrInternal, err)
		}
	}

	identity, err := e.verifier.verify(ctx, identifier, secret)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if e.loginGuardActive() {
				if incErr := e.rateLimiter.IncrementLogin(ctx, identifier, ip); incErr != nil && errors.Is(incErr, rate.ErrRateLimited) {
					e.metricInc(MetricLoginRateLimited)
					e.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
						return map[string]string{"identifier": identifier}
					})
					return TokenPair{}, ErrLoginRateLimited
				}
			}
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
				return map[string]string{"identifier": identifier}
			})
			return TokenPair{}, ErrInvalidCredentials
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, nil)
		return TokenPair{}, err
	}

	if e.config.Password.UpgradeOnLogin {
		e.verifier.maybeUpgradeHash(ctx, identity, secret)
	}
	secret = ""

	pair, err := e.establishSession(ctx, identity)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, err, nil)
		return TokenPair{}, err
	}

	if e.loginGuardActive() {
		// Counter reset is best-effort and must not fail a successful login.
		if err := e.rateLimiter.ResetLogin(ctx, identifier, ip); err != nil {
			log.Print("authkit: login limiter reset failed")
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, nil, func() map[string]string {
		return map[string]string{"identifier": identifier}
	})

	return pair, nil
}

// Refresh rotates the caller's session. The presented token is consumed
// atomically before anything is issued: the loser of a concurrent race
// observes an absent token and fails, the old token is dead the moment the
// call proceeds, and any failure after consumption leaves the caller with
// no live token rather than two.
//
// The caller identity must be established by the transport layer, typically
// via [Engine.Validate] on the access token.
func (e *Engine) Refresh(ctx context.Context, caller Identity, refreshToken string) (TokenPair, error) {
	if e == nil || e.refresh == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	if caller.ID == "" {
		return TokenPair{}, fmt.Errorf("%w: caller identity required", ErrValidation)
	}
	if refreshToken == "" {
		return TokenPair{}, fmt.Errorf("%w: refresh token required", ErrValidation)
	}

	// Throttle before any token-store I/O.
	if e.rateLimiter != nil {
		if err := e.rateLimiter.AllowRefresh(ctx, caller.ID); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricRefreshRateLimited)
				e.emitAudit(ctx, auditEventRefreshRateLimited, false, caller.ID, ErrRefreshRateLimited, nil)
				return TokenPair{}, ErrRefreshRateLimited
			}
			return TokenPair{}, fmt.Errorf("%w: refresh limiter: %v", ErrInternal, err)
		}
	}

	tok, err := e.refresh.Consume(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, refresh.ErrNotFound):
			// Unknown, already rotated, or revoked; indistinguishable by design.
			e.metricInc(MetricRefreshFailure)
			e.metricInc(MetricRotationConflict)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, caller.ID, ErrRefreshInvalid, nil)
			return TokenPair{}, ErrRefreshInvalid
		case errors.Is(err, refresh.ErrExpired):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, caller.ID, ErrRefreshExpired, nil)
			return TokenPair{}, ErrRefreshExpired
		default:
			return TokenPair{}, fmt.Errorf("%w: consume refresh token: %v", ErrInternal, err)
		}
	}

	if tok.OwnerID != caller.ID {
		// The token is already consumed, so a stolen-token probe burns it.
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshConflict, false, caller.ID, ErrRefreshOwnerMismatch, func() map[string]string {
			return map[string]string{"token_owner": tok.OwnerID}
		})
		return TokenPair{}, ErrRefreshOwnerMismatch
	}

	pair, err := e.establishSession(ctx, caller)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, caller.ID, err, nil)
		return TokenPair{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, caller.ID, nil, nil)

	return pair, nil
}

// Logout revokes every refresh token of the caller. Idempotent: logging out
// with nothing to revoke succeeds.
func (e *Engine) Logout(ctx context.Context, caller Identity) error {
	if e == nil || e.refresh == nil {
		return ErrEngineNotReady
	}
	if caller.ID == "" {
		return fmt.Errorf("%w: caller identity required", ErrValidation)
	}

	if err := e.refresh.RevokeAllForOwner(ctx, caller.ID); err != nil {
		e.emitAudit(ctx, auditEventLogout, false, caller.ID, err, nil)
		return fmt.Errorf("%w: revoke refresh tokens: %v", ErrInternal, err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, caller.ID, nil, nil)

	return nil
}

// Validate verifies an access token and returns its claims. Purely
// computational: no store lookup, no revocation check. Failures carry the
// precise sub-reason (empty, invalid, expired) under ErrAuthenticationFailed.
func (e *Engine) Validate(_ context.Context, tokenStr string) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.jwtManager.Parse(tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrEmptyToken):
			return nil, ErrTokenEmpty
		case errors.Is(err, jwt.ErrExpiredToken):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}

	res := &AuthResult{
		Subject: claims.Subject,
		Roles:   claims.Roles,
	}
	if claims.IssuedAt != nil {
		res.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		res.ExpiresAt = claims.ExpiresAt.Time
	}

	return res, nil
}

// establishSession runs the shared tail of Login and Refresh: revoke every
// live refresh token for the identity, then issue a new refresh token and a
// new access token. Revocation strictly precedes issuance, so a failure
// partway leaves zero live tokens, never two.
func (e *Engine) establishSession(ctx context.Context, identity Identity) (TokenPair, error) {
	if err := e.refresh.RevokeAllForOwner(ctx, identity.ID); err != nil {
		return TokenPair{}, fmt.Errorf("%w: revoke refresh tokens: %v", ErrInternal, err)
	}

	refreshTok, err := e.refresh.Issue(ctx, identity.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: issue refresh token: %v", ErrInternal, err)
	}

	access, err := e.jwtManager.Issue(identity.Username, identity.Roles)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: issue access token: %v", ErrInternal, err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refreshTok.Token,
	}, nil
}

func (e *Engine) loginGuardActive() bool {
	return e.config.Login.Enabled && e.rateLimiter != nil
}

func (e *Engine) onSweepCompleted(removed int) {
	if e == nil {
		return
	}
	if e.metrics != nil && removed > 0 {
		e.metrics.Add(MetricTokensSwept, uint64(removed))
	}
	e.emitAudit(context.Background(), auditEventSweepCompleted, true, "", nil, func() map[string]string {
		return map[string]string{"removed": fmt.Sprint(removed)}
	})
}
