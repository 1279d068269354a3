// internal/queue/rabbitmq.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RabbitMQQueue publishes mail jobs to a durable queue. Messages are
// persistent so pending notifications survive a broker restart.
type RabbitMQQueue struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewRabbitMQQueue(url, queueName string) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // auto-delete
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logrus.WithField("queue", queueName).Info("Connected to RabbitMQ")

	return &RabbitMQQueue{
		conn:      conn,
		channel:   channel,
		queueName: queueName,
	}, nil
}

func (q *RabbitMQQueue) Enqueue(ctx context.Context, job MailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}

	err = q.channel.PublishWithContext(
		ctx,
		"",          // default exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish mail job %s: %w", job.Kind, err)
	}

	logrus.WithFields(logrus.Fields{
		"kind": job.Kind,
		"to":   job.To,
	}).Info("Mail job enqueued")
	return nil
}

func (q *RabbitMQQueue) Close() error {
	if q.channel != nil {
		if err := q.channel.Close(); err != nil {
			logrus.WithError(err).Error("Error closing RabbitMQ channel")
		}
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
