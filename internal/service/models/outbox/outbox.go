package outbox

import (
	"time"
)

// Message represents a lifecycle event that failed to be published to
// RabbitMQ and awaits redelivery by the outbox worker.
type Message struct {
	ID          int64
	QueueName   string
	RoutingKey  string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}
