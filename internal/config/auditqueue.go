package config

// AuditQueueConfig controls the optional mirroring of audit events to a
// RabbitMQ queue. The SQL audit table is always the source of truth;
// the queue is a best-effort feed for out-of-band consumers. When
// disabled or when no broker URL is configured, mirroring is skipped
// entirely.
type AuditQueueConfig struct {
	Enabled bool
	URL     string
	Queue   string
}

func LoadAuditQueueConfig() AuditQueueConfig {
	c := AuditQueueConfig{
		Enabled: envBool("AUDIT_QUEUE_ENABLED", false),
		URL:     envStr("RABBITMQ_URL", envStr("AMQP_URL", "")),
		Queue:   envStr("AUDIT_QUEUE_NAME", "audit.events"),
	}
	if c.URL == "" {
		c.Enabled = false
	}
	return c
}
