package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleDraft(t *testing.T) *domain.BlockDraft {
	t.Helper()
	d := domain.NewCreateDraft()
	require.NoError(t, d.SetProfessional("P"))
	require.NoError(t, d.SetLocation("L"))
	require.NoError(t, d.SetDate("2024-06-10"))
	require.NoError(t, d.SetStartTime("09:00"))
	require.NoError(t, d.SetEndTime("10:00"))
	require.NoError(t, d.SetReason("Capacitación"))
	return d
}

func recurringDraft(t *testing.T) *domain.BlockDraft {
	t.Helper()
	d := singleDraft(t)
	require.NoError(t, d.SetDate("2024-06-03"))
	require.NoError(t, d.SetRecurring(true))
	require.NoError(t, d.SetWeekdays(domain.NewWeekdaySet(time.Monday, time.Wednesday)))
	require.NoError(t, d.SetRepeatUntil("2024-06-14"))
	return d
}

func TestValidate_SingleWithoutBookings(t *testing.T) {
	result := domain.Validate(singleDraft(t), nil)

	require.True(t, result.OK(), result.Message())
	rule, ok := result.Rule.(domain.SingleRule)
	require.True(t, ok)
	assert.Equal(t, "P", rule.ProfessionalID)
	assert.Equal(t, "L", rule.LocationID)
	assert.Equal(t, june10, rule.Date)
	assert.Equal(t, "09:00", rule.StartTime)
	assert.Equal(t, "10:00", rule.EndTime)
	assert.Equal(t, "Capacitación", rule.Reason)
	assert.Equal(t, 1, result.EstimatedCount)
	assert.Nil(t, result.Update)
}

func TestValidate_ConflictWithActiveBooking(t *testing.T) {
	bookings := []domain.Booking{
		{Date: "2024-06-10", StartTime: "09:30", EndTime: "09:45", Status: "confirmada"},
	}

	result := domain.Validate(singleDraft(t), bookings)

	require.False(t, result.OK())
	assert.ErrorIs(t, result.Err, domain.ErrConflict)
	assert.Nil(t, result.Rule)
	assert.Contains(t, result.Message(), "09:30")
}

func TestValidate_CancelledBookingDoesNotConflict(t *testing.T) {
	bookings := []domain.Booking{
		{Date: "2024-06-10", StartTime: "09:30", EndTime: "09:45", Status: "cancelada"},
	}

	result := domain.Validate(singleDraft(t), bookings)
	assert.True(t, result.OK(), result.Message())
}

func TestValidate_RecurringEstimate(t *testing.T) {
	result := domain.Validate(recurringDraft(t), nil)

	require.True(t, result.OK(), result.Message())
	rule, ok := result.Rule.(domain.RecurringRule)
	require.True(t, ok)
	assert.Equal(t, 4, result.EstimatedCount)
	assert.Equal(t, []int{1, 3}, rule.Weekdays.Sorted())
	assert.Equal(t, date(2024, time.June, 3), rule.StartDate)
	assert.Equal(t, date(2024, time.June, 14), rule.EndDate)
}

func TestValidate_RecurringSkipsOverlapCheck(t *testing.T) {
	bookings := []domain.Booking{
		{Date: "2024-06-03", StartTime: "09:30", EndTime: "09:45", Status: "confirmada"},
	}

	result := domain.Validate(recurringDraft(t), bookings)
	assert.True(t, result.OK(), result.Message())
}

func TestValidate_DefaultReason(t *testing.T) {
	d := singleDraft(t)
	require.NoError(t, d.SetReason("   "))

	result := domain.Validate(d, nil)
	require.True(t, result.OK())
	assert.Equal(t, domain.DefaultReason, result.Rule.Common().Reason)
	assert.Equal(t, "   ", d.Reason(), "draft must not be modified")

	custom := domain.NewValidator("Vacaciones").Validate(d, nil)
	require.True(t, custom.OK())
	assert.Equal(t, "Vacaciones", custom.Rule.Common().Reason)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T, d *domain.BlockDraft)
		message string
		kind    error
	}{
		{
			name:    "missing professional",
			mutate:  func(t *testing.T, d *domain.BlockDraft) { require.NoError(t, d.SetProfessional("")) },
			message: domain.MsgProfessionalRequired,
			kind:    domain.ErrFieldValidation,
		},
		{
			name:    "missing location",
			mutate:  func(t *testing.T, d *domain.BlockDraft) { require.NoError(t, d.SetLocation(" ")) },
			message: domain.MsgLocationRequired,
			kind:    domain.ErrFieldValidation,
		},
		{
			name:    "missing date",
			mutate:  func(t *testing.T, d *domain.BlockDraft) { require.NoError(t, d.SetDate("")) },
			message: domain.MsgDateRequired,
			kind:    domain.ErrFieldValidation,
		},
		{
			name:    "unparseable date",
			mutate:  func(t *testing.T, d *domain.BlockDraft) { require.NoError(t, d.SetDate("10/06/2024")) },
			message: domain.MsgDateInvalid,
			kind:    domain.ErrFieldValidation,
		},
		{
			name:    "equal times",
			mutate:  func(t *testing.T, d *domain.BlockDraft) { require.NoError(t, d.SetEndTime("09:00")) },
			message: domain.MsgInvalidRange,
			kind:    domain.ErrFieldValidation,
		},
		{
			name:    "inverted times",
			mutate:  func(t *testing.T, d *domain.BlockDraft) { require.NoError(t, d.SetEndTime("08:00")) },
			message: domain.MsgInvalidRange,
			kind:    domain.ErrFieldValidation,
		},
		{
			name: "inverted times with single digit hour",
			mutate: func(t *testing.T, d *domain.BlockDraft) {
				require.NoError(t, d.SetStartTime("23:00"))
				require.NoError(t, d.SetEndTime("9:00"))
			},
			message: domain.MsgInvalidRange,
			kind:    domain.ErrFieldValidation,
		},
		{
			name:    "equal times with seconds",
			mutate:  func(t *testing.T, d *domain.BlockDraft) { require.NoError(t, d.SetEndTime("09:00:00")) },
			message: domain.MsgInvalidRange,
			kind:    domain.ErrFieldValidation,
		},
		{
			name:    "non numeric end time",
			mutate:  func(t *testing.T, d *domain.BlockDraft) { require.NoError(t, d.SetEndTime("zz:00")) },
			message: domain.MsgInvalidTime,
			kind:    domain.ErrFieldValidation,
		},
		{
			name: "missing weekdays",
			mutate: func(t *testing.T, d *domain.BlockDraft) {
				require.NoError(t, d.SetRecurring(true))
				require.NoError(t, d.SetRepeatUntil("2024-06-30"))
			},
			message: domain.MsgWeekdaysRequired,
			kind:    domain.ErrFieldValidation,
		},
		{
			name: "missing repeat until",
			mutate: func(t *testing.T, d *domain.BlockDraft) {
				require.NoError(t, d.SetRecurring(true))
				require.NoError(t, d.SetWeekdays(domain.NewWeekdaySet(time.Monday)))
			},
			message: domain.MsgRepeatUntilRequired,
			kind:    domain.ErrFieldValidation,
		},
		{
			name: "repeat until before start",
			mutate: func(t *testing.T, d *domain.BlockDraft) {
				require.NoError(t, d.SetRecurring(true))
				require.NoError(t, d.SetWeekdays(domain.NewWeekdaySet(time.Monday)))
				require.NoError(t, d.SetRepeatUntil("2024-06-01"))
			},
			message: domain.MsgRepeatUntilBeforeStart,
			kind:    domain.ErrFieldValidation,
		},
		{
			name: "no matching dates",
			mutate: func(t *testing.T, d *domain.BlockDraft) {
				require.NoError(t, d.SetRecurring(true))
				require.NoError(t, d.SetWeekdays(domain.NewWeekdaySet(time.Sunday)))
				require.NoError(t, d.SetRepeatUntil("2024-06-12"))
			},
			message: domain.MsgNoDatesInRange,
			kind:    domain.ErrFieldValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := singleDraft(t)
			tt.mutate(t, d)

			result := domain.Validate(d, nil)

			require.False(t, result.OK())
			assert.Equal(t, tt.message, result.Message())
			assert.ErrorIs(t, result.Err, tt.kind)
		})
	}
}

func TestValidate_NormalizesTimes(t *testing.T) {
	d := singleDraft(t)
	require.NoError(t, d.SetStartTime("9:00"))
	require.NoError(t, d.SetEndTime("10:00:00"))

	result := domain.Validate(d, nil)

	require.True(t, result.OK(), result.Message())
	assert.Equal(t, "09:00", result.Rule.Common().StartTime)
	assert.Equal(t, "10:00", result.Rule.Common().EndTime)
	assert.Equal(t, "9:00", d.StartTime(), "draft must not be modified")
}

func TestValidate_EditWithServerSeconds(t *testing.T) {
	existing := domain.ScheduleBlock{
		ID: "blk-1", ProfessionalID: "P", LocationID: "L", Date: june10,
		StartTime: "08:00:00", EndTime: "09:00:00", Reason: "Almuerzo",
	}

	t.Run("empty interval is rejected", func(t *testing.T) {
		d := domain.NewEditDraft(existing)
		require.NoError(t, d.SetStartTime("09:00"))

		result := domain.Validate(d, nil)
		assert.Equal(t, domain.MsgInvalidRange, result.Message())
	})

	t.Run("update carries HH:MM", func(t *testing.T) {
		d := domain.NewEditDraft(existing)
		require.NoError(t, d.SetStartTime("08:30"))

		result := domain.Validate(d, nil)
		require.True(t, result.OK(), result.Message())
		require.NotNil(t, result.Update)
		assert.Equal(t, "08:30", result.Update.StartTime)
		assert.Equal(t, "09:00", result.Update.EndTime)
	})
}

func TestValidate_OrderShortCircuits(t *testing.T) {
	d := domain.NewCreateDraft()
	require.NoError(t, d.SetStartTime("10:00"))
	require.NoError(t, d.SetEndTime("09:00"))

	// Required fields are reported before the time range.
	result := domain.Validate(d, nil)
	assert.Equal(t, domain.MsgProfessionalRequired, result.Message())

	// Range is checked before minute conversion.
	d = singleDraft(t)
	require.NoError(t, d.SetStartTime("xx:00"))
	require.NoError(t, d.SetEndTime("10:00"))
	result = domain.Validate(d, nil)
	assert.Equal(t, domain.MsgInvalidRange, result.Message())

	// Minute conversion is checked before overlap.
	d = singleDraft(t)
	require.NoError(t, d.SetEndTime("10:7x"))
	bookings := []domain.Booking{{Date: "2024-06-10", StartTime: "09:00", EndTime: "09:30"}}
	result = domain.Validate(d, bookings)
	assert.Equal(t, domain.MsgInvalidTime, result.Message())
}

func TestValidate_EditMode(t *testing.T) {
	existing := domain.ScheduleBlock{
		ID:             "blk-1",
		ProfessionalID: "P",
		LocationID:     "L",
		Date:           june10,
		StartTime:      "09:00",
		EndTime:        "10:00",
		Reason:         "Almuerzo",
	}

	t.Run("builds update with mutable fields", func(t *testing.T) {
		d := domain.NewEditDraft(existing)
		require.NoError(t, d.SetEndTime("10:30"))

		result := domain.Validate(d, nil)
		require.True(t, result.OK(), result.Message())
		require.NotNil(t, result.Update)
		assert.Equal(t, domain.BlockUpdate{
			BlockID:   "blk-1",
			StartTime: "09:00",
			EndTime:   "10:30",
			Reason:    "Almuerzo",
		}, *result.Update)
	})

	t.Run("checks overlap on the block date", func(t *testing.T) {
		d := domain.NewEditDraft(existing)
		bookings := []domain.Booking{{Date: "2024-06-10", StartTime: "09:50", EndTime: "10:20"}}

		result := domain.Validate(d, bookings)
		assert.ErrorIs(t, result.Err, domain.ErrConflict)
	})

	t.Run("rejects a block without id", func(t *testing.T) {
		anonymous := existing
		anonymous.ID = ""
		d := domain.NewEditDraft(anonymous)

		result := domain.Validate(d, nil)
		assert.Equal(t, domain.MsgMissingBlockID, result.Message())
	})
}

func TestValidate_NilDraft(t *testing.T) {
	result := domain.Validate(nil, nil)
	assert.False(t, result.OK())
}

func TestBlockError_Is(t *testing.T) {
	err := error(&domain.BlockError{Kind: domain.KindConflict, Message: "x"})

	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.False(t, errors.Is(err, domain.ErrFieldValidation))
	assert.Equal(t, "x", err.Error())
	assert.Equal(t, string(domain.KindSubmission), domain.ErrSubmission.Error())

	generic := domain.SubmissionError("")
	assert.Equal(t, domain.MsgSubmissionFailed, generic.Message)
}
