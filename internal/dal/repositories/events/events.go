package events

import (
	"context"

	"github.com/streadway/amqp"

	"github.com/ecomcore/order/internal/dal/rabbitmq"
	"github.com/ecomcore/order/internal/service/models/event"
)

// RabbitMQPublisher delivers lifecycle events to RabbitMQ. Delivery is
// best-effort: a failed publish is reported to the caller, which decides how
// to handle it (the service logs it and hands the message to the outbox).
type RabbitMQPublisher struct {
	client *rabbitmq.Client
}

// NewRabbitMQPublisher creates a publisher and declares the lifecycle queues.
func NewRabbitMQPublisher(client *rabbitmq.Client) *RabbitMQPublisher {
	for _, name := range []string{event.QueueOrderCreated, event.QueueOrderStatusChanged} {
		if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
			Name:       name,
			Durable:    true,
			Exclusive:  false,
			AutoDelete: false,
		}); err != nil {
			panic(err)
		}
	}

	return &RabbitMQPublisher{
		client: client,
	}
}

// Publish sends one JSON payload to the named queue via the default exchange.
func (p *RabbitMQPublisher) Publish(_ context.Context, queueName string, payload []byte) error {
	return p.client.Channel().Publish(
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}
