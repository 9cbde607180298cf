package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/salonops/internal/shared/domain"
)

// AllEvents subscribes a consumer to every routing key.
const AllEvents = "#"

// EventConsumer handles specific event types.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles,
	// e.g. ["blocking.block.created"], or AllEvents.
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is an event envelope as read back from the bus.
type ConsumedEvent struct {
	EventID       uuid.UUID            `json:"event_id"`
	AggregateID   string               `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	RoutingKey    string               `json:"routing_key"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Payload       json.RawMessage      `json:"payload"`
	Metadata      domain.EventMetadata `json:"metadata,omitempty"`
}
