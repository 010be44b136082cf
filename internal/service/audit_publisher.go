// Package service holds application services that sit between handlers
// and repositories. Errors from the audit path are logged and swallowed
// so callers can ignore failures without interrupting the main request
// flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/orbit-studio/orbit-api/internal/config"
	q "github.com/orbit-studio/orbit-api/internal/queue"
)

// AuditPublisher mirrors audit events to a RabbitMQ queue. A nil
// publisher is valid and publishes nothing.
type AuditPublisher struct {
	url   string
	queue string
}

// NewAuditPublisher returns a publisher, or nil when mirroring is
// disabled by configuration.
func NewAuditPublisher(cfg config.AuditQueueConfig) *AuditPublisher {
	if !cfg.Enabled {
		return nil
	}
	return &AuditPublisher{url: cfg.URL, queue: cfg.Queue}
}

// Publish sends one audit event to the queue. The function never panics;
// any error is logged and returned so the caller can choose to ignore
// it. Messages are marked as persistent.
func (p *AuditPublisher) Publish(ctx context.Context, msg q.AuditEventMessage) error {
	if p == nil {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
