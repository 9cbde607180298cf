package domain

import "fmt"

// ErrorKind classifies failures surfaced to the person filling in a block.
type ErrorKind string

const (
	KindFieldValidation ErrorKind = "field_validation"
	KindConflict        ErrorKind = "conflict"
	KindImmutableField  ErrorKind = "immutable_field"
	KindSubmission      ErrorKind = "submission"
)

// BlockError is a user-facing failure with a short message.
type BlockError struct {
	Kind    ErrorKind
	Message string
}

func (e *BlockError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any BlockError of the same kind when the target carries no message.
func (e *BlockError) Is(target error) bool {
	t, ok := target.(*BlockError)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// Kind sentinels for errors.Is.
var (
	ErrFieldValidation = &BlockError{Kind: KindFieldValidation}
	ErrConflict        = &BlockError{Kind: KindConflict}
	ErrImmutableField  = &BlockError{Kind: KindImmutableField}
	ErrSubmission      = &BlockError{Kind: KindSubmission}
)

// User-facing messages.
const (
	MsgProfessionalRequired   = "Selecciona un profesional."
	MsgLocationRequired       = "Selecciona una sede."
	MsgDateRequired           = "Selecciona una fecha."
	MsgDateInvalid            = "La fecha no es válida."
	MsgWeekdaysRequired       = "Selecciona al menos un día de la semana."
	MsgRepeatUntilRequired    = "Indica hasta qué fecha se repite el bloqueo."
	MsgRepeatUntilInvalid     = "La fecha de fin de la repetición no es válida."
	MsgInvalidRange           = "La hora de fin debe ser posterior a la hora de inicio."
	MsgInvalidTime            = "Formato de hora inválido."
	MsgRepeatUntilBeforeStart = "La fecha de fin debe ser igual o posterior a la fecha de inicio."
	MsgNoDatesInRange         = "Ningún día del rango coincide con los días seleccionados."
	MsgMissingBlockID         = "No se pudo identificar el bloqueo a editar."
	MsgRecurrenceInEdit       = "Un bloqueo existente solo se puede editar como instancia única."
	MsgSubmissionFailed       = "No se pudo guardar el bloqueo."
	MsgSubmissionInProgress   = "Ya hay un guardado en curso."
	MsgDeleteFailed           = "No se pudo eliminar el bloqueo."
	MsgOverlapsBlock          = "El bloqueo se cruza con otro bloqueo existente."
)

func fieldError(msg string) *BlockError {
	return &BlockError{Kind: KindFieldValidation, Message: msg}
}

// ConflictError reports an overlap with booking b.
func ConflictError(b Booking) *BlockError {
	return &BlockError{
		Kind:    KindConflict,
		Message: fmt.Sprintf("El bloqueo se cruza con una cita de %s a %s.", b.StartTime, b.EndTime),
	}
}

func immutableError(field Field) *BlockError {
	return &BlockError{
		Kind:    KindImmutableField,
		Message: fmt.Sprintf("No se puede cambiar %s de un bloqueo existente.", field.Label()),
	}
}

// SubmissionError builds a submission failure, falling back to the generic
// message when detail is blank.
func SubmissionError(detail string) *BlockError {
	if detail == "" {
		detail = MsgSubmissionFailed
	}
	return &BlockError{Kind: KindSubmission, Message: detail}
}
