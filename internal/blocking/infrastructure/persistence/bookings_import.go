package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// ImportedBooking is one row of a bookings import file.
type ImportedBooking struct {
	ID             string `json:"id"`
	ProfessionalID string `json:"profesional_id"`
	domain.Booking
}

// DecodeBookings reads a JSON import file: a list of bookings, or an object
// with the list under "citas".
func DecodeBookings(r io.Reader) ([]ImportedBooking, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	var bookings []ImportedBooking
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal([]byte(trimmed), &bookings)
	} else {
		var envelope struct {
			Bookings []ImportedBooking `json:"citas"`
		}
		err = json.Unmarshal([]byte(trimmed), &envelope)
		bookings = envelope.Bookings
	}
	if err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

// ImportBookings upserts bookings so local mode has conflict-check input.
// Every row is validated before anything is written.
func (s *Store) ImportBookings(ctx context.Context, bookings []ImportedBooking) (int, error) {
	for i, b := range bookings {
		if strings.TrimSpace(b.ProfessionalID) == "" {
			return 0, fmt.Errorf("booking %d: missing profesional_id", i+1)
		}
		if _, err := domain.ParseDate(b.Date); err != nil {
			return 0, fmt.Errorf("booking %d: %w", i+1, err)
		}
		if _, err := b.Interval(); err != nil {
			return 0, fmt.Errorf("booking %d: %w", i+1, err)
		}
	}

	err := database.InTx(ctx, s.conn, func(txCtx context.Context) error {
		for _, b := range bookings {
			id := b.ID
			if id == "" {
				id = uuid.New().String()
			}
			date, _ := domain.ParseDate(b.Date)
			_, err := s.exec(txCtx).Exec(txCtx, s.q(`
				INSERT INTO bookings (id, professional_id, booking_date, start_time, end_time, status)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					professional_id = excluded.professional_id,
					booking_date = excluded.booking_date,
					start_time = excluded.start_time,
					end_time = excluded.end_time,
					status = excluded.status`),
				id, b.ProfessionalID, domain.FormatDate(date), b.StartTime, b.EndTime, b.Status,
			)
			if err != nil {
				return fmt.Errorf("import booking %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(bookings), nil
}
