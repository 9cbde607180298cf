package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/salonops/internal/shared/domain"
)

const (
	AggregateType = "ScheduleBlock"

	RoutingKeyPrefix        = "blocking"
	RoutingKeyBlockCreated  = "blocking.block.created"
	RoutingKeySeriesCreated = "blocking.series.created"
	RoutingKeyBlockUpdated  = "blocking.block.updated"
	RoutingKeyBlockDeleted  = "blocking.block.deleted"
)

// BlockCreated is emitted when a single block is persisted.
type BlockCreated struct {
	sharedDomain.BaseEvent
	BlockID        string `json:"block_id"`
	ProfessionalID string `json:"professional_id"`
	LocationID     string `json:"location_id"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Reason         string `json:"reason"`
}

// NewBlockCreated creates a BlockCreated event.
func NewBlockCreated(block ScheduleBlock) BlockCreated {
	return BlockCreated{
		BaseEvent:      sharedDomain.NewBaseEvent(block.ID, AggregateType, RoutingKeyBlockCreated),
		BlockID:        block.ID,
		ProfessionalID: block.ProfessionalID,
		LocationID:     block.LocationID,
		Date:           FormatDate(block.Date),
		StartTime:      block.StartTime,
		EndTime:        block.EndTime,
		Reason:         block.Reason,
	}
}

// SeriesCreated is emitted after a recurring rule was submitted.
type SeriesCreated struct {
	sharedDomain.BaseEvent
	ProfessionalID string `json:"professional_id"`
	LocationID     string `json:"location_id"`
	Weekdays       []int  `json:"weekdays"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Created        int    `json:"created"`
	Skipped        int    `json:"skipped"`
}

// NewSeriesCreated creates a SeriesCreated event. The professional is the
// aggregate because the server does not always echo the series id.
func NewSeriesCreated(rule RecurringRule, created, skipped int) SeriesCreated {
	return SeriesCreated{
		BaseEvent:      sharedDomain.NewBaseEvent(rule.ProfessionalID, AggregateType, RoutingKeySeriesCreated),
		ProfessionalID: rule.ProfessionalID,
		LocationID:     rule.LocationID,
		Weekdays:       rule.Weekdays.Sorted(),
		StartDate:      FormatDate(rule.StartDate),
		EndDate:        FormatDate(rule.EndDate),
		Created:        created,
		Skipped:        skipped,
	}
}

// BlockUpdated is emitted when the times or reason of a block change.
type BlockUpdated struct {
	sharedDomain.BaseEvent
	BlockID   string `json:"block_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

// NewBlockUpdated creates a BlockUpdated event.
func NewBlockUpdated(block ScheduleBlock) BlockUpdated {
	return BlockUpdated{
		BaseEvent: sharedDomain.NewBaseEvent(block.ID, AggregateType, RoutingKeyBlockUpdated),
		BlockID:   block.ID,
		StartTime: block.StartTime,
		EndTime:   block.EndTime,
		Reason:    block.Reason,
	}
}

// BlockDeleted is emitted when a block is removed.
type BlockDeleted struct {
	sharedDomain.BaseEvent
	BlockID   string    `json:"block_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// NewBlockDeleted creates a BlockDeleted event.
func NewBlockDeleted(blockID string) BlockDeleted {
	return BlockDeleted{
		BaseEvent: sharedDomain.NewBaseEvent(blockID, AggregateType, RoutingKeyBlockDeleted),
		BlockID:   blockID,
		DeletedAt: time.Now().UTC(),
	}
}
