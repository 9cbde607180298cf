package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidWeekday = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")

// WeekdaySet is a bitmask of weekdays, bit 0 being Sunday.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// WeekdaySetFromInts builds a set from 0..6 day numbers.
func WeekdaySetFromInts(days []int) (WeekdaySet, error) {
	var s WeekdaySet
	for _, d := range days {
		if d < 0 || d > 6 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
		s = s.With(time.Weekday(d))
	}
	return s, nil
}

// ParseWeekdaySet parses a comma separated list of day numbers or English
// day names ("1,3", "mon,wed").
func ParseWeekdaySet(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, raw := range strings.Split(s, ",") {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		if n, err := strconv.Atoi(token); err == nil {
			if n < 0 || n > 6 {
				return 0, fmt.Errorf("%w: %d", ErrInvalidWeekday, n)
			}
			set = set.With(time.Weekday(n))
			continue
		}
		day, ok := weekdayNames[token]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
		}
		set = set.With(day)
	}
	return set, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// With returns a copy of the set including d.
func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// IsEmpty reports whether no weekday is selected.
func (s WeekdaySet) IsEmpty() bool {
	return s&0x7f == 0
}

// Len returns the number of selected weekdays.
func (s WeekdaySet) Len() int {
	return len(s.Sorted())
}

// Sorted returns the selected weekdays as ascending 0..6 numbers.
func (s WeekdaySet) Sorted() []int {
	days := make([]int, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, int(d))
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Sorted() {
		names = append(names, time.Weekday(d).String()[:3])
	}
	return strings.Join(names, ",")
}

// Expand lists every date from start to end inclusive whose weekday is in
// weekdays, in ascending order. An inverted range yields no dates.
func Expand(start, end time.Time, weekdays WeekdaySet) []time.Time {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) || weekdays.IsEmpty() {
		return []time.Time{}
	}

	dates := make([]time.Time, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if weekdays.Has(d.Weekday()) {
			dates = append(dates, d)
		}
	}
	return dates
}
