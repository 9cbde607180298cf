package domain

import "time"

// RuleKind distinguishes the two shapes of a block request.
type RuleKind string

const (
	RuleKindSingle    RuleKind = "single"
	RuleKindRecurring RuleKind = "recurring"
)

// RuleCommon holds the fields shared by single and recurring rules.
type RuleCommon struct {
	ProfessionalID string
	LocationID     string
	StartTime      string
	EndTime        string
	Reason         string
}

// BlockRule is either a SingleRule or a RecurringRule.
type BlockRule interface {
	Kind() RuleKind
	Common() RuleCommon
	isBlockRule()
}

// SingleRule blocks one interval on one date.
type SingleRule struct {
	RuleCommon
	Date time.Time
}

func (SingleRule) Kind() RuleKind       { return RuleKindSingle }
func (r SingleRule) Common() RuleCommon { return r.RuleCommon }
func (SingleRule) isBlockRule()         {}

// Block returns the local, not yet persisted block this rule describes.
func (r SingleRule) Block() ScheduleBlock {
	return ScheduleBlock{
		ProfessionalID: r.ProfessionalID,
		LocationID:     r.LocationID,
		Date:           DateOnly(r.Date),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Reason:         r.Reason,
	}
}

// RecurringRule blocks the same interval on every matching weekday of a date range.
type RecurringRule struct {
	RuleCommon
	StartDate time.Time
	EndDate   time.Time
	Weekdays  WeekdaySet
}

func (RecurringRule) Kind() RuleKind       { return RuleKindRecurring }
func (r RecurringRule) Common() RuleCommon { return r.RuleCommon }
func (RecurringRule) isBlockRule()         {}

// Dates expands the rule into concrete dates.
func (r RecurringRule) Dates() []time.Time {
	return Expand(r.StartDate, r.EndDate, r.Weekdays)
}

// EstimatedCount is the number of blocks the rule is expected to create.
func (r RecurringRule) EstimatedCount() int {
	return len(r.Dates())
}

// BlockUpdate carries the mutable fields of an existing block.
type BlockUpdate struct {
	BlockID   string
	StartTime string
	EndTime   string
	Reason    string
}

// EstimateRecurringCount returns the preview count for a rule. Single rules
// always count as one block.
func EstimateRecurringCount(rule BlockRule) int {
	switch r := rule.(type) {
	case RecurringRule:
		return r.EstimatedCount()
	case *RecurringRule:
		return r.EstimatedCount()
	case nil:
		return 0
	default:
		return 1
	}
}
