package domain

import (
	"strings"
	"time"
)

// ValidationResult is the outcome of validating a draft. When Err is nil,
// Rule holds the request to submit.
type ValidationResult struct {
	Rule           BlockRule
	Update         *BlockUpdate
	EstimatedCount int
	Err            *BlockError
}

// OK reports whether validation passed.
func (r ValidationResult) OK() bool {
	return r.Err == nil
}

// Message returns the user-facing failure message, if any.
func (r ValidationResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message
}

func failed(err *BlockError) ValidationResult {
	return ValidationResult{Err: err}
}

// Validator checks drafts before submission.
type Validator struct {
	defaultReason string
}

// NewValidator creates a validator that substitutes defaultReason for blank
// reasons. An empty defaultReason falls back to DefaultReason.
func NewValidator(defaultReason string) *Validator {
	if strings.TrimSpace(defaultReason) == "" {
		defaultReason = DefaultReason
	}
	return &Validator{defaultReason: defaultReason}
}

// Validate runs the checks with the package default reason.
func Validate(draft *BlockDraft, bookings []Booking) ValidationResult {
	return NewValidator("").Validate(draft, bookings)
}

// Validate checks draft against the caller's bookings for the same date.
// Checks run in a fixed order and stop at the first failure; the draft is
// never modified.
func (v *Validator) Validate(draft *BlockDraft, bookings []Booking) ValidationResult {
	if draft == nil {
		return failed(fieldError(MsgDateRequired))
	}
	recurring := draft.isRecurringRequest()

	// Required fields.
	if strings.TrimSpace(draft.professionalID) == "" {
		return failed(fieldError(MsgProfessionalRequired))
	}
	if strings.TrimSpace(draft.locationID) == "" {
		return failed(fieldError(MsgLocationRequired))
	}
	if strings.TrimSpace(draft.date) == "" {
		return failed(fieldError(MsgDateRequired))
	}
	date, err := ParseDate(draft.date)
	if err != nil {
		return failed(fieldError(MsgDateInvalid))
	}
	reason := strings.TrimSpace(draft.reason)
	if reason == "" {
		reason = v.defaultReason
	}
	var repeatUntil time.Time
	if recurring {
		if draft.weekdays.IsEmpty() {
			return failed(fieldError(MsgWeekdaysRequired))
		}
		if strings.TrimSpace(draft.repeatUntil) == "" {
			return failed(fieldError(MsgRepeatUntilRequired))
		}
		repeatUntil, err = ParseDate(draft.repeatUntil)
		if err != nil {
			return failed(fieldError(MsgRepeatUntilInvalid))
		}
	}

	// Time range.
	if !endsAfter(draft.startTime, draft.endTime) {
		return failed(fieldError(MsgInvalidRange))
	}

	// Minute conversion.
	start, okStart := MinutesOf(draft.startTime)
	end, okEnd := MinutesOf(draft.endTime)
	if !okStart || !okEnd {
		return failed(fieldError(MsgInvalidTime))
	}
	candidate, err := NewTimeInterval(TimeOfDay(start), TimeOfDay(end))
	if err != nil {
		return failed(fieldError(MsgInvalidRange))
	}

	// Submitted times are always zero-padded HH:MM.
	common := RuleCommon{
		ProfessionalID: strings.TrimSpace(draft.professionalID),
		LocationID:     strings.TrimSpace(draft.locationID),
		StartTime:      candidate.Start.String(),
		EndTime:        candidate.End.String(),
		Reason:         reason,
	}

	// Overlap against same-date bookings, single blocks only.
	if !recurring {
		if b, found := FirstConflict(candidate, date, bookings); found {
			return failed(ConflictError(b))
		}
	}

	// Recurrence.
	if recurring {
		if repeatUntil.Before(date) {
			return failed(fieldError(MsgRepeatUntilBeforeStart))
		}
		rule := RecurringRule{
			RuleCommon: common,
			StartDate:  date,
			EndDate:    repeatUntil,
			Weekdays:   draft.weekdays,
		}
		count := rule.EstimatedCount()
		if count == 0 {
			return failed(fieldError(MsgNoDatesInRange))
		}
		return ValidationResult{Rule: rule, EstimatedCount: count}
	}

	rule := SingleRule{RuleCommon: common, Date: date}

	// Edit target.
	if draft.mode == ModeEdit {
		if strings.TrimSpace(draft.blockID) == "" {
			return failed(fieldError(MsgMissingBlockID))
		}
		return ValidationResult{
			Rule:           rule,
			EstimatedCount: 1,
			Update: &BlockUpdate{
				BlockID:   draft.blockID,
				StartTime: common.StartTime,
				EndTime:   common.EndTime,
				Reason:    reason,
			},
		}
	}

	return ValidationResult{Rule: rule, EstimatedCount: 1}
}

// endsAfter compares parsed minutes when both values are times of day. Values
// that do not parse fall back to string order so the range step still runs
// before minute conversion reports them.
func endsAfter(start, end string) bool {
	s, okStart := MinutesOf(start)
	e, okEnd := MinutesOf(end)
	if okStart && okEnd {
		return e > s
	}
	return end > start
}
