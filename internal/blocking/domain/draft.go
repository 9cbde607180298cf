package domain

import "time"

// BlockDraft is the editable form state behind a block request. Its mode is
// fixed at construction.
type BlockDraft struct {
	mode     Mode
	blockID  string
	original ScheduleBlock

	professionalID string
	locationID     string
	date           string
	startTime      string
	endTime        string
	reason         string

	recurring   bool
	weekdays    WeekdaySet
	repeatUntil string
}

// NewCreateDraft returns an empty draft in create mode.
func NewCreateDraft() *BlockDraft {
	return &BlockDraft{mode: ModeCreate}
}

// NewEditDraft returns a draft in edit mode seeded from an existing block.
func NewEditDraft(block ScheduleBlock) *BlockDraft {
	return &BlockDraft{
		mode:           ModeEdit,
		blockID:        block.ID,
		original:       block,
		professionalID: block.ProfessionalID,
		locationID:     block.LocationID,
		date:           FormatDate(block.Date),
		startTime:      block.StartTime,
		endTime:        block.EndTime,
		reason:         block.Reason,
	}
}

func (d *BlockDraft) Mode() Mode             { return d.mode }
func (d *BlockDraft) BlockID() string        { return d.blockID }
func (d *BlockDraft) ProfessionalID() string { return d.professionalID }
func (d *BlockDraft) LocationID() string     { return d.locationID }
func (d *BlockDraft) Date() string           { return d.date }
func (d *BlockDraft) StartTime() string      { return d.startTime }
func (d *BlockDraft) EndTime() string        { return d.endTime }
func (d *BlockDraft) Reason() string         { return d.reason }
func (d *BlockDraft) IsRecurring() bool      { return d.recurring }
func (d *BlockDraft) Weekdays() WeekdaySet   { return d.weekdays }
func (d *BlockDraft) RepeatUntil() string    { return d.repeatUntil }

// Original returns the block an edit draft was seeded from. It is the zero
// block in create mode.
func (d *BlockDraft) Original() ScheduleBlock { return d.original }

func (d *BlockDraft) mutate(field Field, apply func()) error {
	decision := Guard(d.mode, field)
	if !decision.Allowed {
		return decision.Err
	}
	apply()
	return nil
}

func (d *BlockDraft) SetProfessional(id string) error {
	return d.mutate(FieldProfessional, func() { d.professionalID = id })
}

func (d *BlockDraft) SetLocation(id string) error {
	return d.mutate(FieldLocation, func() { d.locationID = id })
}

// SetDate sets the block date, or the first date of a recurring rule.
func (d *BlockDraft) SetDate(date string) error {
	return d.mutate(FieldDate, func() { d.date = date })
}

func (d *BlockDraft) SetStartTime(t string) error {
	return d.mutate(FieldStartTime, func() { d.startTime = t })
}

func (d *BlockDraft) SetEndTime(t string) error {
	return d.mutate(FieldEndTime, func() { d.endTime = t })
}

func (d *BlockDraft) SetReason(reason string) error {
	return d.mutate(FieldReason, func() { d.reason = reason })
}

func (d *BlockDraft) SetRecurring(recurring bool) error {
	return d.mutate(FieldRecurring, func() { d.recurring = recurring })
}

func (d *BlockDraft) SetWeekdays(days WeekdaySet) error {
	return d.mutate(FieldWeekdays, func() { d.weekdays = days })
}

// ToggleWeekday flips a single weekday in the selection.
func (d *BlockDraft) ToggleWeekday(day time.Weekday) error {
	return d.mutate(FieldWeekdays, func() { d.weekdays ^= 1 << uint(day) })
}

func (d *BlockDraft) SetRepeatUntil(date string) error {
	return d.mutate(FieldRepeatUntil, func() { d.repeatUntil = date })
}

// Set dispatches a string value to the matching field setter.
func (d *BlockDraft) Set(field Field, value string) error {
	switch field {
	case FieldProfessional:
		return d.SetProfessional(value)
	case FieldLocation:
		return d.SetLocation(value)
	case FieldDate:
		return d.SetDate(value)
	case FieldStartTime:
		return d.SetStartTime(value)
	case FieldEndTime:
		return d.SetEndTime(value)
	case FieldReason:
		return d.SetReason(value)
	case FieldRepeatUntil:
		return d.SetRepeatUntil(value)
	case FieldWeekdays:
		days, err := ParseWeekdaySet(value)
		if err != nil {
			return fieldError(MsgWeekdaysRequired)
		}
		return d.SetWeekdays(days)
	case FieldRecurring:
		return d.SetRecurring(value == "true" || value == "1")
	default:
		return fieldError("Campo desconocido: " + string(field))
	}
}

// isRecurringRequest reports whether the draft should be submitted as a
// recurring rule. Edit drafts never are.
func (d *BlockDraft) isRecurringRequest() bool {
	return d.mode == ModeCreate && d.recurring
}
