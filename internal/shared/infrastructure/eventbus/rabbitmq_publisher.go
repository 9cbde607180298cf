package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/salonops/pkg/observability"
)

const (
	// ExchangeName is the topic exchange for block lifecycle events.
	ExchangeName = "salonops.blocking.events"
)

// RabbitMQPublisher publishes events to RabbitMQ.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	metrics  observability.Metrics
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewRabbitMQPublisher connects to url, declares the durable topic exchange
// and puts the channel in confirm mode.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat:  10 * time.Second,
		Properties: amqp.Table{"connection_name": observability.ServiceName + "-publisher"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	logger.Debug("RabbitMQ publisher connected", "exchange", ExchangeName)
	return &RabbitMQPublisher{
		conn:     conn,
		channel:  ch,
		exchange: ExchangeName,
		metrics:  observability.NoopMetrics{},
		logger:   logger,
	}, nil
}

// WithMetrics sets the metrics collector.
func (p *RabbitMQPublisher) WithMetrics(m observability.Metrics) *RabbitMQPublisher {
	if m != nil {
		p.metrics = m
	}
	return p
}

// Publish sends payload as a persistent message and waits for the broker to
// confirm it. A nack is an error, so the outbox keeps the message for retry.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		Type:          routingKey,
		MessageId:     envelopeID(payload),
		CorrelationId: observability.CorrelationIDFromContext(ctx),
		AppId:         observability.ServiceName,
		Body:          payload,
	}

	p.mu.Lock()
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()
	if err == nil {
		var acked bool
		acked, err = confirm.WaitContext(ctx)
		if err == nil && !acked {
			err = fmt.Errorf("broker rejected message %s", routingKey)
		}
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish message", "routing_key", routingKey, "error", err)
		return err
	}

	p.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", routingKey))
	p.logger.DebugContext(ctx, "message published", "routing_key", routingKey, "message_id", msg.MessageId)
	return nil
}

// envelopeID returns the event_id of an encoded envelope, or "".
func envelopeID(payload []byte) string {
	var head struct {
		EventID string `json:"event_id"`
	}
	if json.Unmarshal(payload, &head) != nil {
		return ""
	}
	return head.EventID
}

// Ping reports whether the broker connection is still open.
func (p *RabbitMQPublisher) Ping(_ context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection closed")
	}
	return nil
}

// Close closes the publisher connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing channel", "error", err)
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
	}

	p.logger.Debug("RabbitMQ publisher closed")
	return nil
}
