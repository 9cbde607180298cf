package application

import (
	"context"
	"encoding/json"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/salonops/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/salonops/internal/shared/domain"
)

// PublishEvents serializes and publishes events. Failures are logged and do
// not affect the caller's outcome.
func PublishEvents(ctx context.Context, publisher EventPublisher, logger *slog.Logger, session Session, events ...sharedDomain.DomainEvent) {
	if publisher == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	metadata := sharedApplication.NewEventMetadata(ctx, session.ActorID)
	for _, event := range events {
		envelope := sharedDomain.NewEnvelope(event)
		envelope.Metadata = metadata

		payload, err := json.Marshal(envelope)
		if err != nil {
			logger.WarnContext(ctx, "failed to encode event", "routing_key", event.RoutingKey(), "error", err)
			continue
		}
		if err := publisher.Publish(ctx, event.RoutingKey(), payload); err != nil {
			logger.WarnContext(ctx, "failed to publish event", "routing_key", event.RoutingKey(), "error", err)
		}
	}
}
