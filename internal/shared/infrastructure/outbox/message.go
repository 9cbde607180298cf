package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is a published event waiting in the outbox.
type Message struct {
	ID               int64
	EventID          string
	AggregateType    string
	AggregateID      string
	RoutingKey       string
	Payload          json.RawMessage
	CorrelationID    string
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        string
	DeadLetteredAt   *time.Time
	DeadLetterReason string
}

// envelopeHeader is the part of an event envelope the outbox indexes.
type envelopeHeader struct {
	EventID       string    `json:"event_id"`
	AggregateID   string    `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	Metadata      struct {
		CorrelationID string `json:"correlation_id"`
	} `json:"metadata"`
}

// NewMessage wraps an encoded event envelope. The payload is stored as is;
// only its header fields are read.
func NewMessage(routingKey string, payload []byte, now time.Time) (*Message, error) {
	var header envelopeHeader
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, fmt.Errorf("invalid event envelope: %w", err)
	}
	createdAt := header.OccurredAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &Message{
		EventID:       header.EventID,
		AggregateType: header.AggregateType,
		AggregateID:   header.AggregateID,
		RoutingKey:    routingKey,
		Payload:       json.RawMessage(payload),
		CorrelationID: header.Metadata.CorrelationID,
		CreatedAt:     createdAt.UTC(),
	}, nil
}

// IsPublished returns true if the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// IsDead returns true if the message was dead-lettered.
func (m *Message) IsDead() bool {
	return m.DeadLetteredAt != nil
}

// CanRetry returns true if the message can be retried.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}
