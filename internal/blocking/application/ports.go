// Package application defines the ports the blocking engine needs from the
// outside world and the handlers that drive it.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

var (
	ErrBlockNotFound  = errors.New("block not found")
	ErrSessionMissing = errors.New("session has no access token")
)

// Session carries the caller's credentials. It is passed explicitly to every
// component that talks to the backend.
type Session struct {
	AccessToken string
	ActorID     string
}

// RecurringSummary is the server's report for a recurring submission.
type RecurringSummary struct {
	Created int
	Skipped int
}

// BlockAPI is the backend that persists schedule blocks.
type BlockAPI interface {
	// ListBlocks returns every block of a professional.
	ListBlocks(ctx context.Context, session Session, professionalID string) ([]domain.ScheduleBlock, error)

	// CreateBlock persists a single block and returns the stored record.
	CreateBlock(ctx context.Context, session Session, rule domain.SingleRule) (*domain.ScheduleBlock, error)

	// CreateRecurring submits a recurring rule; the backend expands it.
	CreateRecurring(ctx context.Context, session Session, rule domain.RecurringRule) (*RecurringSummary, error)

	// UpdateBlock changes the mutable fields of a block. A nil block with a
	// nil error means the backend accepted the change without echoing it.
	UpdateBlock(ctx context.Context, session Session, update domain.BlockUpdate) (*domain.ScheduleBlock, error)

	// DeleteBlock removes a block.
	DeleteBlock(ctx context.Context, session Session, blockID string) error
}

// BookingsProvider returns the bookings of a professional on one date.
type BookingsProvider interface {
	BookingsFor(ctx context.Context, session Session, professionalID string, date time.Time) ([]domain.Booking, error)
}

// EventPublisher sends serialized domain events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}

// UserDetailer is implemented by errors that carry a server message suitable
// for display.
type UserDetailer interface {
	UserDetail() string
}

// UserMessage extracts the message to show for a backend failure, falling
// back to fallback.
func UserMessage(err error, fallback string) string {
	var blockErr *domain.BlockError
	if errors.As(err, &blockErr) && blockErr.Message != "" {
		return blockErr.Message
	}
	var detailed UserDetailer
	if errors.As(err, &detailed) {
		if detail := detailed.UserDetail(); detail != "" {
			return detail
		}
	}
	return fallback
}
