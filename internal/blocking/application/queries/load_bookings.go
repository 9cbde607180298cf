package queries

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

// LoadBookingsQuery asks for a professional's own bookings on one date.
type LoadBookingsQuery struct {
	Session        application.Session
	ProfessionalID string
	Date           time.Time
}

// BookingsDTO holds the bookings used as conflict-check input.
type BookingsDTO struct {
	Date     time.Time
	Bookings []domain.Booking
	Active   int
}

// LoadBookingsHandler handles the LoadBookingsQuery.
type LoadBookingsHandler struct {
	provider application.BookingsProvider
}

// NewLoadBookingsHandler creates a new LoadBookingsHandler.
func NewLoadBookingsHandler(provider application.BookingsProvider) *LoadBookingsHandler {
	return &LoadBookingsHandler{provider: provider}
}

// Handle executes the LoadBookingsQuery. Bookings that fall on other dates
// are dropped so the result is always the same-day set.
func (h *LoadBookingsHandler) Handle(ctx context.Context, query LoadBookingsQuery) (*BookingsDTO, error) {
	if strings.TrimSpace(query.ProfessionalID) == "" {
		return nil, ErrProfessionalRequired
	}
	date := domain.DateOnly(query.Date)

	bookings, err := h.provider.BookingsFor(ctx, query.Session, query.ProfessionalID, date)
	if err != nil {
		return nil, err
	}

	dto := &BookingsDTO{Date: date, Bookings: make([]domain.Booking, 0, len(bookings))}
	for _, b := range bookings {
		bookingDate, err := domain.ParseDate(b.Date)
		if err != nil || !domain.SameDate(bookingDate, date) {
			continue
		}
		dto.Bookings = append(dto.Bookings, b)
		if b.IsActive() {
			dto.Active++
		}
	}
	return dto, nil
}
