// internal/queue/consumer.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer drains mail jobs from the queue with at-least-once semantics:
// handler failures nack with requeue, malformed payloads are dropped.
type Consumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewConsumer(url, queueName string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// One unacked message at a time keeps redelivery ordering simple.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Consumer{
		conn:      conn,
		channel:   channel,
		queueName: queueName,
	}, nil
}

// Run blocks consuming jobs until ctx is cancelled or the delivery channel
// closes.
func (c *Consumer) Run(ctx context.Context, handler func(context.Context, MailJob) error) error {
	deliveries, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	logrus.WithField("queue", c.queueName).Info("Mail worker consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler func(context.Context, MailJob) error) {
	var job MailJob
	if err := json.Unmarshal(delivery.Body, &job); err != nil {
		logrus.WithError(err).Error("Dropping malformed mail job")
		delivery.Ack(false)
		return
	}

	if err := handler(ctx, job); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind": job.Kind,
			"to":   job.To,
		}).Error("Mail job failed, requeueing")
		delivery.Nack(false, true)
		return
	}

	delivery.Ack(false)
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			logrus.WithError(err).Error("Error closing RabbitMQ channel")
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
