// Package calendar provides pure date and wall-clock helpers shared by the
// recurrence engine and the conflict detector.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeRange indicates a time window whose start is not before its end.
var ErrInvalidTimeRange = errors.New("calendar: invalid time range")

// MinutesPerDay is the number of wall-clock minutes in a calendar day.
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute in 24h notation.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses a "HH:MM" 24h string. Both components must be
// exactly two digits.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(value, ":")
	hour, hourOK := parseClockPart(hh)
	minute, minuteOK := parseClockPart(mm)
	if !ok || !hourOK || !minuteOK {
		return 0, fmt.Errorf("calendar: parse time of day %q: want HH:MM", value)
	}
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("calendar: time of day %q out of range", value)
	}
	return NewTimeOfDay(hour, minute), nil
}

func parseClockPart(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Valid reports whether the value lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

// Hour returns the hour component in 24h notation.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the value as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// TimeRange is a half-open wall-clock window [Start, End).
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewTimeRange builds a validated window.
func NewTimeRange(start, end TimeOfDay) (TimeRange, error) {
	r := TimeRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

// Validate reports ErrInvalidTimeRange when the window is empty, inverted,
// or falls outside a single day.
func (r TimeRange) Validate() error {
	if !r.Start.Valid() || r.End <= 0 || r.End > MinutesPerDay {
		return ErrInvalidTimeRange
	}
	if r.Start >= r.End {
		return ErrInvalidTimeRange
	}
	return nil
}

// String renders the window as "HH:MM-HH:MM".
func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// RangesOverlap reports whether the half-open windows intersect. Touching
// endpoints (a.End == b.Start) are not an overlap.
func RangesOverlap(a, b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// DayOf returns the weekday of a calendar date using the Sunday=0 convention
// shared by the persistence layer and the HTTP API.
func DayOf(date time.Time) time.Weekday {
	return date.Weekday()
}

// DateOnly truncates a timestamp to midnight UTC so calendar dates compare
// by day regardless of the wall-clock component of their source value.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same UTC calendar day.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
