package cli

import (
	"context"
	"time"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/commands"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/queries"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/services"
	"github.com/felixgeelhaar/salonops/internal/blocking/infrastructure/persistence"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

// BookingImporter loads bookings into the local store.
type BookingImporter interface {
	ImportBookings(ctx context.Context, bookings []persistence.ImportedBooking) (int, error)
}

// BookingsInvalidator drops cached bookings of one professional and date.
type BookingsInvalidator interface {
	Invalidate(ctx context.Context, professionalID string, date time.Time) error
}

// EventOutbox is the local outbox of published events.
type EventOutbox interface {
	Counts(ctx context.Context) (outbox.Counts, error)
}

// OutboxRelay forwards outbox messages to the broker.
type OutboxRelay interface {
	Flush(ctx context.Context) (int, error)
	Run(ctx context.Context) error
}

// App holds the CLI application dependencies.
type App struct {
	Session application.Session

	// Query Handlers
	ListBlocksHandler   *queries.ListBlocksHandler
	LoadBookingsHandler *queries.LoadBookingsHandler

	// Command Handlers
	DeleteBlockHandler *commands.DeleteBlockHandler

	// NewCoordinator returns a fresh coordinator per form flow.
	NewCoordinator func() *services.MutationCoordinator

	// BookingImporter is nil outside local mode.
	BookingImporter BookingImporter

	// BookingsCache is nil without Redis.
	BookingsCache BookingsInvalidator

	// Outbox and OutboxRelay are nil unless a local outbox is active.
	Outbox      EventOutbox
	OutboxRelay OutboxRelay

	Health *observability.HealthRegistry
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
