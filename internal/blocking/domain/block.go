package domain

import "time"

// DefaultReason is used when a block is submitted without a reason.
const DefaultReason = "Bloqueo de agenda"

// SeriesInfo links a block to the recurring rule that generated it.
type SeriesInfo struct {
	ID        string
	Weekdays  WeekdaySet
	RuleStart time.Time
	RuleEnd   time.Time
}

// ScheduleBlock is a span of time during which a professional cannot be booked.
type ScheduleBlock struct {
	ID             string
	ProfessionalID string
	LocationID     string
	Date           time.Time
	StartTime      string
	EndTime        string
	Reason         string
	Series         *SeriesInfo
}

// IsPersisted reports whether the block has a server-assigned identifier.
func (b ScheduleBlock) IsPersisted() bool {
	return b.ID != ""
}

// IsRecurring reports whether the block belongs to a series.
func (b ScheduleBlock) IsRecurring() bool {
	return b.Series != nil
}

// Interval returns the block's time span.
func (b ScheduleBlock) Interval() (TimeInterval, error) {
	return ParseTimeInterval(b.StartTime, b.EndTime)
}

// MergeFrom overlays non-empty server fields on top of the local draft.
// The date is only replaced when the server returned one.
func (b ScheduleBlock) MergeFrom(server ScheduleBlock) ScheduleBlock {
	merged := b
	if server.ID != "" {
		merged.ID = server.ID
	}
	if server.ProfessionalID != "" {
		merged.ProfessionalID = server.ProfessionalID
	}
	if server.LocationID != "" {
		merged.LocationID = server.LocationID
	}
	if !server.Date.IsZero() {
		merged.Date = DateOnly(server.Date)
	}
	if server.StartTime != "" {
		merged.StartTime = server.StartTime
	}
	if server.EndTime != "" {
		merged.EndTime = server.EndTime
	}
	if server.Reason != "" {
		merged.Reason = server.Reason
	}
	if server.Series != nil {
		merged.Series = server.Series
	}
	return merged
}
