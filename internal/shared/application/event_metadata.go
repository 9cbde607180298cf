package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/salonops/internal/shared/domain"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

// NewEventMetadata builds the metadata stamped on every event published
// during one operation. The correlation id comes from ctx, or is generated
// when ctx carries none.
func NewEventMetadata(ctx context.Context, actorID string) domain.EventMetadata {
	correlationID := observability.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	if actorID == "" {
		actorID = observability.ActorIDFromContext(ctx)
	}
	return domain.EventMetadata{
		CorrelationID: correlationID,
		ActorID:       actorID,
	}
}
