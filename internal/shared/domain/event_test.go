package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/salonops/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	domain.BaseEvent
	Data string `json:"data"`
}

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()

	event := domain.NewBaseEvent("block-1", "TestAggregate", "test.event.created")

	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "block-1", event.AggregateID())
	assert.Equal(t, "TestAggregate", event.AggregateType())
	assert.Equal(t, "test.event.created", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	event := domain.NewBaseEvent("block-1", "TestAggregate", "test.event.created")
	event.SetMetadata(domain.EventMetadata{
		CorrelationID: "corr-1",
		ActorID:       "admin-7",
	})

	metadata := event.Metadata()
	assert.Equal(t, "corr-1", metadata.CorrelationID)
	assert.Equal(t, "admin-7", metadata.ActorID)
}

func TestNewEnvelope(t *testing.T) {
	event := testEvent{
		BaseEvent: domain.NewBaseEvent("block-9", "TestAggregate", "test.event.created"),
		Data:      "payload",
	}

	envelope := domain.NewEnvelope(event)
	assert.Equal(t, event.EventID(), envelope.EventID)
	assert.Equal(t, "block-9", envelope.AggregateID)
	assert.Equal(t, "test.event.created", envelope.RoutingKey)

	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	payload, ok := decoded["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "payload", payload["data"])
}
