package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// SyncJob asks the worker to run one integration sync.
type SyncJob struct {
	IntegrationID string    `json:"integration_id"`
	RequestedBy   string    `json:"requested_by,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     *logrus.Logger
}

func NewRabbitMQ(cfg RabbitMQConfig, log *logrus.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.Queue, // queue name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	log.WithField("queue", q.Name).Info("connected to RabbitMQ and declared queue")
	return &RabbitMQ{conn: conn, channel: ch, queue: q, log: log}, nil
}

func (r *RabbitMQ) PublishSync(ctx context.Context, job SyncJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    job.RequestedAt,
			Body:         body,
		},
	)
}

// ConsumeSyncJobs delivers jobs one at a time until ctx is done or the
// channel closes. A job is acked once the handler returns; failed runs are
// recorded on the integration, not redelivered.
func (r *RabbitMQ) ConsumeSyncJobs(ctx context.Context, handler func(context.Context, SyncJob) error) error {
	if err := r.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := r.channel.Consume(
		r.queue.Name,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("sync queue %s closed", r.queue.Name)
			}
			r.handleDelivery(ctx, d, handler)
		}
	}
}

// handleDelivery runs one job and settles it. Invalid messages are dropped,
// handler failures are logged and acked; the tracker has recorded them.
func (r *RabbitMQ) handleDelivery(ctx context.Context, d amqp.Delivery, handler func(context.Context, SyncJob) error) {
	var job SyncJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.IntegrationID == "" {
		r.log.WithError(err).Warn("dropping invalid sync job")
		if err := d.Nack(false, false); err != nil {
			r.log.WithError(err).Warn("failed to nack sync job")
		}
		return
	}
	if err := handler(ctx, job); err != nil {
		r.log.WithError(err).WithField("integration_id", job.IntegrationID).Error("sync job failed")
	}
	if err := d.Ack(false); err != nil {
		r.log.WithError(err).Warn("failed to ack sync job")
	}
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}
