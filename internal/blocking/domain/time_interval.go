package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidTime      = errors.New("invalid time of day")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
)

// MinutesPerDay bounds every TimeOfDay value.
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay converts an "HH:MM" string into minutes since midnight.
// A trailing ":SS" component is tolerated and ignored.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	hours, err := parseComponent(parts[0])
	if err != nil || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minutes, err := parseComponent(parts[1])
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(parts) == 3 {
		if _, err := parseComponent(parts[2]); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}

	return TimeOfDay(hours*60 + minutes), nil
}

func parseComponent(s string) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, ErrInvalidTime
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidTime
		}
	}
	return strconv.Atoi(s)
}

// MinutesOf returns the minute value of s and whether it could be converted.
func MinutesOf(s string) (int, bool) {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return 0, false
	}
	return int(t), true
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the value as zero-padded "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// TimeInterval is a half-open [Start, End) span within a single day.
type TimeInterval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewTimeInterval builds an interval, rejecting empty or inverted ranges.
func NewTimeInterval(start, end TimeOfDay) (TimeInterval, error) {
	if end <= start {
		return TimeInterval{}, ErrInvalidTimeRange
	}
	return TimeInterval{Start: start, End: end}, nil
}

// ParseTimeInterval parses both ends of an interval from "HH:MM" strings.
func ParseTimeInterval(start, end string) (TimeInterval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeInterval{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeInterval{}, err
	}
	return NewTimeInterval(s, e)
}

// Overlaps reports whether the two intervals intersect.
// Intervals that only touch at an endpoint do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start < other.End && i.End > other.Start
}

// Minutes returns the interval length in minutes.
func (i TimeInterval) Minutes() int {
	return int(i.End - i.Start)
}

func (i TimeInterval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
