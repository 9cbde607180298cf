package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/salonops/pkg/observability"
)

func TestNewEventMetadata(t *testing.T) {
	t.Run("uses correlation id from context", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "corr-1")

		metadata := NewEventMetadata(ctx, "admin-1")

		assert.Equal(t, "corr-1", metadata.CorrelationID)
		assert.Equal(t, "admin-1", metadata.ActorID)
	})

	t.Run("generates correlation id when missing", func(t *testing.T) {
		m1 := NewEventMetadata(context.Background(), "")
		m2 := NewEventMetadata(context.Background(), "")

		_, err := uuid.Parse(m1.CorrelationID)
		require.NoError(t, err)
		assert.NotEqual(t, m1.CorrelationID, m2.CorrelationID)
	})

	t.Run("falls back to actor in context", func(t *testing.T) {
		ctx := observability.WithActorID(context.Background(), "admin-2")

		metadata := NewEventMetadata(ctx, "")

		assert.Equal(t, "admin-2", metadata.ActorID)
	})
}
