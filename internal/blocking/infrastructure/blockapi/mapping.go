package blockapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

// flexID accepts ids sent as JSON strings or numbers.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

type singlePayload struct {
	ProfessionalID string `json:"profesional_id"`
	LocationID     string `json:"sede_id"`
	StartTime      string `json:"hora_inicio"`
	EndTime        string `json:"hora_fin"`
	Reason         string `json:"motivo"`
	Date           string `json:"fecha"`
}

type recurringPayload struct {
	ProfessionalID string `json:"profesional_id"`
	LocationID     string `json:"sede_id"`
	StartTime      string `json:"hora_inicio"`
	EndTime        string `json:"hora_fin"`
	Reason         string `json:"motivo"`
	Recurring      bool   `json:"recurrente"`
	Weekdays       []int  `json:"dias_semana"`
	StartDate      string `json:"fecha_inicio"`
	EndDate        string `json:"fecha_fin"`
}

type updatePayload struct {
	StartTime string `json:"hora_inicio,omitempty"`
	EndTime   string `json:"hora_fin,omitempty"`
	Reason    string `json:"motivo,omitempty"`
}

func toSinglePayload(rule domain.SingleRule) singlePayload {
	return singlePayload{
		ProfessionalID: rule.ProfessionalID,
		LocationID:     rule.LocationID,
		StartTime:      rule.StartTime,
		EndTime:        rule.EndTime,
		Reason:         rule.Reason,
		Date:           domain.FormatDate(rule.Date),
	}
}

func toRecurringPayload(rule domain.RecurringRule) recurringPayload {
	return recurringPayload{
		ProfessionalID: rule.ProfessionalID,
		LocationID:     rule.LocationID,
		StartTime:      rule.StartTime,
		EndTime:        rule.EndTime,
		Reason:         rule.Reason,
		Recurring:      true,
		Weekdays:       rule.Weekdays.Sorted(),
		StartDate:      domain.FormatDate(rule.StartDate),
		EndDate:        domain.FormatDate(rule.EndDate),
	}
}

func toUpdatePayload(update domain.BlockUpdate) updatePayload {
	return updatePayload{
		StartTime: update.StartTime,
		EndTime:   update.EndTime,
		Reason:    update.Reason,
	}
}

// blockRecord is a block as the API returns it.
type blockRecord struct {
	ID             flexID `json:"id"`
	ProfessionalID flexID `json:"profesional_id"`
	LocationID     flexID `json:"sede_id"`
	Date           string `json:"fecha"`
	StartTime      string `json:"hora_inicio"`
	EndTime        string `json:"hora_fin"`
	Reason         string `json:"motivo"`
	SeriesID       flexID `json:"serie_id"`
	Weekdays       []int  `json:"dias_semana"`
	RuleStart      string `json:"fecha_inicio"`
	RuleEnd        string `json:"fecha_fin"`
}

func (r blockRecord) toDomain() domain.ScheduleBlock {
	block := domain.ScheduleBlock{
		ID:             string(r.ID),
		ProfessionalID: string(r.ProfessionalID),
		LocationID:     string(r.LocationID),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Reason:         r.Reason,
	}
	if date, err := domain.ParseDate(r.Date); err == nil {
		block.Date = date
	}
	if r.SeriesID != "" {
		series := &domain.SeriesInfo{ID: string(r.SeriesID)}
		if days, err := domain.WeekdaySetFromInts(r.Weekdays); err == nil {
			series.Weekdays = days
		}
		if start, err := domain.ParseDate(r.RuleStart); err == nil {
			series.RuleStart = start
		}
		if end, err := domain.ParseDate(r.RuleEnd); err == nil {
			series.RuleEnd = end
		}
		block.Series = series
	}
	return block
}

// decodeBlock reads a single block, either bare or nested under "bloqueo".
// An empty body yields nil.
func decodeBlock(body []byte) (*domain.ScheduleBlock, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var envelope struct {
		Block *blockRecord `json:"bloqueo"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Block != nil {
		block := envelope.Block.toDomain()
		return &block, nil
	}

	var record blockRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, err
	}
	block := record.toDomain()
	return &block, nil
}

// decodeBlocks reads a list of blocks, either bare or under "bloqueos".
func decodeBlocks(body []byte) ([]domain.ScheduleBlock, error) {
	var records []blockRecord
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []domain.ScheduleBlock{}, nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
	} else {
		var envelope struct {
			Blocks []blockRecord `json:"bloqueos"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		records = envelope.Blocks
	}

	blocks := make([]domain.ScheduleBlock, 0, len(records))
	for _, r := range records {
		blocks = append(blocks, r.toDomain())
	}
	return blocks, nil
}

// decodeSummary reads resumen.creados and resumen.omitidos. Counts may be
// numbers or numeric strings.
func decodeSummary(body []byte) (*application.RecurringSummary, error) {
	var envelope struct {
		Summary struct {
			Created json.RawMessage `json:"creados"`
			Skipped json.RawMessage `json:"omitidos"`
		} `json:"resumen"`
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &application.RecurringSummary{}, nil
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	return &application.RecurringSummary{
		Created: count(envelope.Summary.Created),
		Skipped: count(envelope.Summary.Skipped),
	}, nil
}

func count(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// decodeBookings reads a booking list, either bare or under "citas".
func decodeBookings(body []byte) ([]domain.Booking, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []domain.Booking{}, nil
	}
	var bookings []domain.Booking
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &bookings); err != nil {
			return nil, err
		}
		return bookings, nil
	}
	var envelope struct {
		Bookings []domain.Booking `json:"citas"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if envelope.Bookings == nil {
		return []domain.Booking{}, nil
	}
	return envelope.Bookings, nil
}
