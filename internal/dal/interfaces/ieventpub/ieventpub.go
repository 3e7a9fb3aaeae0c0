package ieventpub

import "context"

// IEventPublisher delivers lifecycle event payloads to the message bus.
// Delivery is best-effort at-least-once: a returned error means this attempt
// failed, not that the message can never be delivered.
type IEventPublisher interface {
	Publish(ctx context.Context, queueName string, payload []byte) error
}
