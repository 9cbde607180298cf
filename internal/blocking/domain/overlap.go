package domain

import "time"

// HasConflict reports whether candidate intersects any active booking on date.
func HasConflict(candidate TimeInterval, date time.Time, bookings []Booking) bool {
	_, found := FirstConflict(candidate, date, bookings)
	return found
}

// FirstConflict returns the first active, same-date booking whose interval
// intersects candidate. Bookings with unreadable dates or times are skipped.
func FirstConflict(candidate TimeInterval, date time.Time, bookings []Booking) (Booking, bool) {
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		bookingDate, err := ParseDate(b.Date)
		if err != nil || !SameDate(bookingDate, date) {
			continue
		}
		interval, err := b.Interval()
		if err != nil {
			continue
		}
		if candidate.Overlaps(interval) {
			return b, true
		}
	}
	return Booking{}, false
}
