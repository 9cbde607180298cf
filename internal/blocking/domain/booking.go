package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// nonBlockingStatuses lists booking states that free the slot again.
var nonBlockingStatuses = map[string]struct{}{
	"cancelada":  {},
	"cancelado":  {},
	"no asistio": {},
	"no_asistio": {},
	"no asistió": {},
}

// Booking is an appointment owned by the booking system. It is read-only here.
type Booking struct {
	Date      string `json:"fecha"`
	StartTime string `json:"hora_inicio"`
	EndTime   string `json:"hora_fin"`
	Status    string `json:"estado"`
}

// NormalizeStatus case-folds and trims a status label.
func NormalizeStatus(status string) string {
	return cases.Fold().String(strings.TrimSpace(status))
}

// IsNonBlockingStatus reports whether status releases the booked time.
func IsNonBlockingStatus(status string) bool {
	_, ok := nonBlockingStatuses[NormalizeStatus(status)]
	return ok
}

// IsActive reports whether the booking takes part in conflict checks.
// Unknown or empty statuses count as active.
func (b Booking) IsActive() bool {
	return !IsNonBlockingStatus(b.Status)
}

// Interval returns the booking's time span.
func (b Booking) Interval() (TimeInterval, error) {
	start, err := ParseTimeOfDay(b.StartTime)
	if err != nil {
		return TimeInterval{}, err
	}
	end, err := ParseTimeOfDay(b.EndTime)
	if err != nil {
		return TimeInterval{}, err
	}
	return TimeInterval{Start: start, End: end}, nil
}
