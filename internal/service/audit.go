package service

import (
	"context"
	"log"
	"time"

	"github.com/orbit-studio/orbit-api/internal/model"
	"github.com/orbit-studio/orbit-api/internal/queue"
	"github.com/orbit-studio/orbit-api/internal/repository"
)

// AuditLogger appends security events to the audit table and optionally
// mirrors them to the audit queue. Record is fire-and-forget: a failed
// write must never abort the request that triggered it, so errors are
// logged to process output only.
type AuditLogger struct {
	Repo      *repository.AuditRepo
	Publisher *AuditPublisher
}

func NewAuditLogger(repo *repository.AuditRepo, pub *AuditPublisher) *AuditLogger {
	return &AuditLogger{Repo: repo, Publisher: pub}
}

// Record writes one audit event. Safe to call on a nil logger.
func (a *AuditLogger) Record(ctx context.Context, e model.AuditEvent) {
	if a == nil || a.Repo == nil {
		return
	}
	if err := a.Repo.Record(ctx, e); err != nil {
		log.Printf("audit: record %s failed: %v", e.EventType, err)
	}
	if a.Publisher != nil {
		_ = a.Publisher.Publish(ctx, queue.AuditEventMessage{
			EventType: e.EventType,
			UserID:    e.UserID,
			Email:     e.Email,
			IPAddress: e.IPAddress,
			UserAgent: e.UserAgent,
			Success:   e.Success,
			Details:   e.Details,
			Timestamp: time.Now().UTC(),
		})
	}
}
