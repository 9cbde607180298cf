package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// InProcessEventBus delivers events synchronously to consumers in this
// process. It stands in for RabbitMQ when no broker is configured. Publish
// never fails: bad envelopes and consumer errors are logged and dropped.
type InProcessEventBus struct {
	mu       sync.Mutex
	registry *ConsumerRegistry
	logger   *slog.Logger
}

func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{registry: NewConsumerRegistry(logger), logger: logger}
}

// RegisterConsumer binds consumer to the patterns it declares.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var event ConsumedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	// Serialize delivery so consumers see events in publish order.
	b.mu.Lock()
	start := time.Now()
	err := b.registry.Dispatch(ctx, &event)
	b.mu.Unlock()

	attrs := []any{
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "event dispatch failed", append(attrs, "error", err)...)
		return nil
	}
	b.logger.DebugContext(ctx, "event dispatched", attrs...)
	return nil
}

func (b *InProcessEventBus) ConsumerCount() int {
	return b.registry.ConsumerCount()
}

func (b *InProcessEventBus) Close() error { return nil }
