package authkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshInvalid     = "refresh_invalid"
	auditEventRefreshRateLimited = "refresh_rate_limited"
	auditEventRefreshConflict    = "refresh_conflict"
	auditEventLogout             = "logout"
	auditEventSweepCompleted     = "sweep_completed"
)

// AuditErrorCode is the stable, client-safe error label carried in audit
// events. It never leaks hash material or token contents.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrExpiredToken       AuditErrorCode = "expired_token"
	auditErrOwnerMismatch      AuditErrorCode = "owner_mismatch"
	auditErrValidation         AuditErrorCode = "invalid_input"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// emitAudit builds and enqueues one event. metadataBuilder is lazy so the
// metadata map is only allocated when a dispatcher exists.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		SubjectID: subjectID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrRefreshExpired):
		return auditErrExpiredToken
	case errors.Is(err, ErrRefreshOwnerMismatch):
		return auditErrOwnerMismatch
	case errors.Is(err, ErrAuthenticationFailed):
		return auditErrInvalidToken
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	default:
		return auditErrInternal
	}
}
