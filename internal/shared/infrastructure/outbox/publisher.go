package outbox

import (
	"context"
	"time"

	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/eventbus"
)

// Publisher stores events in the outbox instead of sending them. A Processor
// forwards them to the broker later.
type Publisher struct {
	repo Repository
	now  func() time.Time
}

var _ eventbus.Publisher = (*Publisher)(nil)

// NewPublisher creates an outbox-backed publisher.
func NewPublisher(repo Repository) *Publisher {
	return &Publisher{repo: repo, now: time.Now}
}

// Publish saves the event envelope to the outbox.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	msg, err := NewMessage(routingKey, payload, p.now())
	if err != nil {
		return err
	}
	return p.repo.Save(ctx, msg)
}

// Close is a no-op; the repository's connection is owned elsewhere.
func (p *Publisher) Close() error {
	return nil
}
