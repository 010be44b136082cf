package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/orbit-studio/orbit-api/internal/model"
)

// AuditRepo appends security events to the audit_logs table. Rows are
// never updated or deleted by the application.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Record inserts one audit event.
func (r *AuditRepo) Record(ctx context.Context, e model.AuditEvent) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_logs (event_type, user_id, email, ip_address, user_agent, success, details, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		e.EventType, e.UserID, e.Email, e.IPAddress, e.UserAgent, e.Success, e.Details, time.Now().UTC())
	return err
}

// CountByType returns the number of recorded events of one type. Used by
// tests to assert the audit trail without a read API.
func (r *AuditRepo) CountByType(ctx context.Context, eventType string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_logs WHERE event_type=?", eventType).Scan(&n)
	return n, err
}
