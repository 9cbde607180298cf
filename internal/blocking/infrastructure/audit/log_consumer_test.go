package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	sharedDomain "github.com/felixgeelhaar/salonops/internal/shared/domain"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

func TestLogConsumer_ThroughInProcessBus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	metrics := observability.NewInMemoryMetrics()

	bus := eventbus.NewInProcessEventBus(logger)
	bus.RegisterConsumer(NewLogConsumer(logger, metrics))

	envelope := sharedDomain.NewEnvelope(domain.NewBlockDeleted("blk-9"))
	envelope.Metadata = sharedDomain.EventMetadata{ActorID: "admin-1"}
	payload, err := json.Marshal(envelope)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), domain.RoutingKeyBlockDeleted, payload))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "block event", line["msg"])
	assert.Equal(t, domain.RoutingKeyBlockDeleted, line["routing_key"])
	assert.Equal(t, "blk-9", line["aggregate_id"])
	assert.Equal(t, "admin-1", line["actor_id"])
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsPublished, observability.T("routing_key", domain.RoutingKeyBlockDeleted)))
}

func TestLogConsumer_EventTypes(t *testing.T) {
	patterns := NewLogConsumer(nil, nil).EventTypes()
	for _, key := range []string{
		domain.RoutingKeyBlockCreated,
		domain.RoutingKeySeriesCreated,
		domain.RoutingKeyBlockUpdated,
		domain.RoutingKeyBlockDeleted,
	} {
		assert.True(t, slices.ContainsFunc(patterns, func(p string) bool { return eventbus.MatchTopic(p, key) }), key)
	}
}
