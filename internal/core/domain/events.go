package domain

import "time"

// AuditEventType enumerates the security events published by the auth flows.
type AuditEventType string

const (
	AuditLoginSuccess         AuditEventType = "LOGIN_SUCCESS"
	AuditLoginFailed          AuditEventType = "LOGIN_FAILED"
	AuditLogout               AuditEventType = "LOGOUT"
	AuditPasswordResetRequest AuditEventType = "PASSWORD_RESET_REQUEST"
	AuditPasswordReset        AuditEventType = "PASSWORD_RESET"
)

// AuditEvent is the envelope published to the audit stream for every
// security-relevant transition. Metadata carries event-specific detail
// such as the attempted identifier or the client IP.
type AuditEvent struct {
	EventID    string
	Type       AuditEventType
	UserID     *string
	OccurredAt time.Time
	Metadata   map[string]any
}
