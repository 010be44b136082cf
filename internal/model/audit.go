package model

import "time"

// Audit event types recorded in the `audit_logs` table. The set mirrors
// the security-relevant transitions of the session lifecycle.
const (
	EventLoginSuccess   = "login_success"
	EventLoginFailure   = "login_failure"
	EventRefreshSuccess = "refresh_success"
	EventRefreshFailure = "refresh_failure"
	EventLogout         = "logout"
	EventError          = "error"
)

// AuditEvent is an append-only record of a security-relevant event.
// UserID and Email are optional because failed attempts may not resolve
// to a known account.
type AuditEvent struct {
	ID        int64
	EventType string
	UserID    *int64
	Email     string
	IPAddress string
	UserAgent string
	Success   bool
	Details   string
	CreatedAt time.Time
}
