// Package audit records block lifecycle events when no broker is configured.
package audit

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

// LogConsumer writes one structured log line per block event.
type LogConsumer struct {
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewLogConsumer creates the consumer.
func NewLogConsumer(logger *slog.Logger, metrics observability.Metrics) *LogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &LogConsumer{logger: logger, metrics: metrics}
}

// EventTypes implements eventbus.EventConsumer.
func (c *LogConsumer) EventTypes() []string {
	return []string{domain.RoutingKeyPrefix + ".#"}
}

// Handle implements eventbus.EventConsumer.
func (c *LogConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	c.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey))
	c.logger.InfoContext(ctx, "block event",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID.String(),
		"aggregate_id", event.AggregateID,
		"actor_id", event.Metadata.ActorID,
		"event_correlation_id", event.Metadata.CorrelationID,
		"occurred_at", event.OccurredAt,
		"payload", string(event.Payload),
	)
	return nil
}
