package domain

// Mode selects which fields of a block form may change.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Field names a mutable input of the block form.
type Field string

const (
	FieldProfessional Field = "professional"
	FieldLocation     Field = "location"
	FieldDate         Field = "date"
	FieldStartTime    Field = "start_time"
	FieldEndTime      Field = "end_time"
	FieldReason       Field = "reason"
	FieldRecurring    Field = "recurring"
	FieldWeekdays     Field = "weekdays"
	FieldRepeatUntil  Field = "repeat_until"
)

// Label returns the field name as shown to the user.
func (f Field) Label() string {
	switch f {
	case FieldProfessional:
		return "el profesional"
	case FieldLocation:
		return "la sede"
	case FieldDate:
		return "la fecha"
	case FieldStartTime:
		return "la hora de inicio"
	case FieldEndTime:
		return "la hora de fin"
	case FieldReason:
		return "el motivo"
	case FieldRecurring:
		return "la repetición"
	case FieldWeekdays:
		return "los días de la semana"
	case FieldRepeatUntil:
		return "la fecha de fin de la repetición"
	default:
		return string(f)
	}
}

// MutationDecision is the outcome of asking whether a field may change.
type MutationDecision struct {
	Allowed bool
	Err     *BlockError
}

func allow() MutationDecision { return MutationDecision{Allowed: true} }

// Guard decides whether field may be changed in mode. Every mutation of a
// BlockDraft goes through it.
func Guard(mode Mode, field Field) MutationDecision {
	if mode != ModeEdit {
		return allow()
	}
	switch field {
	case FieldStartTime, FieldEndTime, FieldReason:
		return allow()
	case FieldRecurring, FieldWeekdays, FieldRepeatUntil:
		return MutationDecision{Err: &BlockError{Kind: KindImmutableField, Message: MsgRecurrenceInEdit}}
	default:
		return MutationDecision{Err: immutableError(field)}
	}
}
