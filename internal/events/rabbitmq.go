package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"medium_syncer/internal/domain"
)

// RabbitMQ broadcasts sync outcomes for downstream consumers (site
// search indexers, notification bots). The pipeline tolerates a nil
// publisher, so the broker is strictly optional.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// RecordEvent announces one ledger outcome.
type RecordEvent struct {
	Event     string            `json:"event"` // "article_synced", "article_failed", "article_skipped"
	Record    domain.SyncRecord `json:"record"`
	Timestamp time.Time         `json:"timestamp"`
}

// RunEvent announces a completed run.
type RunEvent struct {
	Event     string           `json:"event"` // "run_completed", "run_failed"
	Result    domain.RunResult `json:"result"`
	Timestamp time.Time        `json:"timestamp"`
}

func (r *RabbitMQ) PublishRecord(ctx context.Context, record *domain.SyncRecord) error {
	event := "article_skipped"
	switch record.Status {
	case domain.StatusSuccess:
		event = "article_synced"
	case domain.StatusFailed:
		event = "article_failed"
	}

	msg := RecordEvent{
		Event:     event,
		Record:    *record,
		Timestamp: time.Now().UTC(),
	}

	if err := r.publish(ctx, msg); err != nil {
		return err
	}

	r.logger.Debug("published record event",
		"source_url", record.SourceURL,
		"event", event,
	)
	return nil
}

func (r *RabbitMQ) PublishRun(ctx context.Context, result *domain.RunResult, failed bool) error {
	event := "run_completed"
	if failed {
		event = "run_failed"
	}

	msg := RunEvent{
		Event:     event,
		Result:    *result,
		Timestamp: time.Now().UTC(),
	}
	return r.publish(ctx, msg)
}

func (r *RabbitMQ) publish(ctx context.Context, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
