package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents something that happened in the domain.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() string
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata contains tracing and context information for events.
type EventMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
}

// BaseEvent provides common event functionality. Aggregate ids are opaque
// strings because blocks are identified by the remote backend.
type BaseEvent struct {
	eventID       uuid.UUID
	aggregateID   string
	aggregateType string
	routingKey    string
	occurredAt    time.Time
	metadata      EventMetadata
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(aggregateID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		eventID:       uuid.New(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		routingKey:    routingKey,
		occurredAt:    time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.eventID }
func (e BaseEvent) AggregateID() string     { return e.aggregateID }
func (e BaseEvent) AggregateType() string   { return e.aggregateType }
func (e BaseEvent) RoutingKey() string      { return e.routingKey }
func (e BaseEvent) OccurredAt() time.Time   { return e.occurredAt }
func (e BaseEvent) Metadata() EventMetadata { return e.metadata }

// SetMetadata sets the event metadata.
func (e *BaseEvent) SetMetadata(metadata EventMetadata) {
	e.metadata = metadata
}

// Envelope is the wire form of an event.
type Envelope struct {
	EventID       uuid.UUID     `json:"event_id"`
	AggregateID   string        `json:"aggregate_id"`
	AggregateType string        `json:"aggregate_type"`
	RoutingKey    string        `json:"routing_key"`
	OccurredAt    time.Time     `json:"occurred_at"`
	Metadata      EventMetadata `json:"metadata"`
	Payload       DomainEvent   `json:"payload"`
}

// NewEnvelope wraps event for publishing.
func NewEnvelope(event DomainEvent) Envelope {
	return Envelope{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Metadata:      event.Metadata(),
		Payload:       event,
	}
}
