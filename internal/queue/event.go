// Package queue defines the message shapes published to RabbitMQ.
package queue

import "time"

// AuditEventMessage is the wire form of an audit event mirrored to the
// audit queue for out-of-band consumers. The SQL audit table remains the
// source of truth; this feed is best-effort.
type AuditEventMessage struct {
	EventType string    `json:"event_type"`
	UserID    *int64    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty"`
	Success   bool      `json:"success"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
