package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

var ErrBlockIDRequired = errors.New("block id is required")

// DeleteBlockCommand contains the data needed to remove a block.
type DeleteBlockCommand struct {
	Session application.Session
	BlockID string
}

// DeleteBlockHandler handles the DeleteBlockCommand.
type DeleteBlockHandler struct {
	api       application.BlockAPI
	publisher application.EventPublisher
	metrics   observability.Metrics
	logger    *slog.Logger
}

// NewDeleteBlockHandler creates a new DeleteBlockHandler. publisher may be nil.
func NewDeleteBlockHandler(api application.BlockAPI, publisher application.EventPublisher, metrics observability.Metrics, logger *slog.Logger) *DeleteBlockHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &DeleteBlockHandler{
		api:       api,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle executes the DeleteBlockCommand.
func (h *DeleteBlockHandler) Handle(ctx context.Context, cmd DeleteBlockCommand) error {
	blockID := strings.TrimSpace(cmd.BlockID)
	if blockID == "" {
		return ErrBlockIDRequired
	}

	if err := h.api.DeleteBlock(ctx, cmd.Session, blockID); err != nil {
		return fmt.Errorf("delete block %s: %w", blockID, err)
	}

	h.metrics.Counter(observability.MetricBlocksDeleted, 1)
	h.logger.InfoContext(ctx, "block deleted", "block_id", blockID)
	application.PublishEvents(ctx, h.publisher, h.logger, cmd.Session, domain.NewBlockDeleted(blockID))
	return nil
}
