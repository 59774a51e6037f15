// Package recurrence expands a meeting template's recurrence rule into the
// ordered list of concrete calendar dates it occupies.
package recurrence

import (
	"errors"
	"sort"
	"time"

	"github.com/example/campus-scheduler/internal/calendar"
)

// Pattern identifies how a template meeting repeats.
type Pattern int

const (
	// PatternNone schedules a single occurrence on the rule's start date.
	PatternNone Pattern = iota
	// PatternDaily schedules every date in the rule window.
	PatternDaily
	// PatternWeekly schedules every 7 days starting at the start date.
	PatternWeekly
	// PatternBiweekly schedules every 14 days starting at the start date.
	PatternBiweekly
	// PatternMonthly schedules the start date's day-of-month each month,
	// clamped to the last day of shorter months.
	PatternMonthly
	// PatternWeekdays schedules every Monday through Friday in the window.
	PatternWeekdays
	// PatternWeekends schedules every Saturday and Sunday in the window.
	PatternWeekends
	// PatternMonWedFri schedules every Monday, Wednesday, and Friday.
	PatternMonWedFri
	// PatternTueThu schedules every Tuesday and Thursday.
	PatternTueThu
	// PatternCustom passes through an explicit caller-supplied date list.
	PatternCustom
)

var patternNames = map[Pattern]string{
	PatternNone:      "none",
	PatternDaily:     "daily",
	PatternWeekly:    "weekly",
	PatternBiweekly:  "biweekly",
	PatternMonthly:   "monthly",
	PatternWeekdays:  "weekdays",
	PatternWeekends:  "weekends",
	PatternMonWedFri: "mon_wed_fri",
	PatternTueThu:    "tue_thu",
	PatternCustom:    "custom",
}

// String returns the wire name of the pattern.
func (p Pattern) String() string {
	if name, ok := patternNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePattern resolves a wire name back to its Pattern.
func ParsePattern(name string) (Pattern, error) {
	for pattern, candidate := range patternNames {
		if candidate == name {
			return pattern, nil
		}
	}
	return 0, ErrInvalidPattern
}

// Rule describes the repetition of a template meeting. StartsOn and EndsOn
// are inclusive calendar-date bounds; when EndsOn is zero it defaults to
// StartsOn plus DefaultHorizonMonths. Dates is consulted only for
// PatternCustom.
type Rule struct {
	Pattern  Pattern
	StartsOn time.Time
	EndsOn   time.Time
	Dates    []time.Time
}

// DefaultHorizonMonths bounds open-ended rules at six months past the start date.
const DefaultHorizonMonths = 6

// DefaultMaxOccurrences caps expansion to guard against unbounded windows.
const DefaultMaxOccurrences = 1000

var (
	// ErrInvalidPattern indicates an unrecognized recurrence pattern.
	ErrInvalidPattern = errors.New("recurrence: invalid pattern")
	// ErrInvalidRuleWindow indicates the rule bounds or custom date list are unusable.
	ErrInvalidRuleWindow = errors.New("recurrence: invalid rule window")
	// ErrRuleTooLarge indicates expansion would exceed the occurrence cap.
	ErrRuleTooLarge = errors.New("recurrence: rule expands beyond the occurrence cap")
)

// Engine expands recurrence rules. It carries no state between calls:
// expanding the same rule twice yields identical results.
type Engine struct {
	maxOccurrences int
}

// NewEngine constructs an Engine with the given occurrence cap. A cap of
// zero or less falls back to DefaultMaxOccurrences.
func NewEngine(maxOccurrences int) *Engine {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return &Engine{maxOccurrences: maxOccurrences}
}

// Expand produces the ordered concrete dates the rule generates, earliest
// first, each normalized to midnight UTC and lying within the rule's
// inclusive bounds.
func (e *Engine) Expand(rule Rule) ([]time.Time, error) {
	limit := DefaultMaxOccurrences
	if e != nil && e.maxOccurrences > 0 {
		limit = e.maxOccurrences
	}

	if rule.StartsOn.IsZero() {
		return nil, ErrInvalidRuleWindow
	}

	start := calendar.DateOnly(rule.StartsOn)
	end := calendar.DateOnly(rule.EndsOn)
	if rule.EndsOn.IsZero() {
		end = start.AddDate(0, DefaultHorizonMonths, 0)
	}
	if end.Before(start) {
		return nil, ErrInvalidRuleWindow
	}

	if rule.Pattern == PatternCustom {
		return expandCustom(rule.Dates, start, end, limit)
	}

	var dates []time.Time
	switch rule.Pattern {
	case PatternNone:
		dates = []time.Time{start}
	case PatternWeekly:
		dates = expandStep(start, end, 7, limit+1)
	case PatternBiweekly:
		dates = expandStep(start, end, 14, limit+1)
	case PatternMonthly:
		dates = expandMonthly(start, end, limit+1)
	case PatternDaily:
		dates = expandFiltered(start, end, nil, limit+1)
	case PatternWeekdays:
		dates = expandFiltered(start, end, weekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday), limit+1)
	case PatternWeekends:
		dates = expandFiltered(start, end, weekdaySet(time.Saturday, time.Sunday), limit+1)
	case PatternMonWedFri:
		dates = expandFiltered(start, end, weekdaySet(time.Monday, time.Wednesday, time.Friday), limit+1)
	case PatternTueThu:
		dates = expandFiltered(start, end, weekdaySet(time.Tuesday, time.Thursday), limit+1)
	default:
		return nil, ErrInvalidPattern
	}

	if len(dates) > limit {
		return nil, ErrRuleTooLarge
	}
	return dates, nil
}

// expandStep walks from start to end in fixed day increments.
func expandStep(start, end time.Time, stepDays, limit int) []time.Time {
	dates := make([]time.Time, 0)
	for current := start; !current.After(end) && len(dates) < limit; current = current.AddDate(0, 0, stepDays) {
		dates = append(dates, current)
	}
	return dates
}

// expandFiltered enumerates every date in the window, keeping those whose
// weekday is in the set. A nil set keeps every date.
func expandFiltered(start, end time.Time, days map[time.Weekday]struct{}, limit int) []time.Time {
	dates := make([]time.Time, 0)
	for current := start; !current.After(end) && len(dates) < limit; current = current.AddDate(0, 0, 1) {
		if days != nil {
			if _, ok := days[calendar.DayOf(current)]; !ok {
				continue
			}
		}
		dates = append(dates, current)
	}
	return dates
}

// expandMonthly repeats the anchor day-of-month, clamping to month end when
// the anchor day does not exist (e.g. the 31st in February).
func expandMonthly(start, end time.Time, limit int) []time.Time {
	anchorDay := start.Day()
	dates := make([]time.Time, 0)
	for offset := 0; len(dates) < limit; offset++ {
		first := time.Date(start.Year(), start.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
		day := anchorDay
		if last := daysInMonth(first); day > last {
			day = last
		}
		candidate := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
		if candidate.After(end) {
			break
		}
		dates = append(dates, candidate)
	}
	return dates
}

func expandCustom(supplied []time.Time, start, end time.Time, limit int) ([]time.Time, error) {
	if len(supplied) == 0 {
		return nil, ErrInvalidRuleWindow
	}

	seen := make(map[time.Time]struct{}, len(supplied))
	dates := make([]time.Time, 0, len(supplied))
	for _, raw := range supplied {
		date := calendar.DateOnly(raw)
		if date.Before(start) || date.After(end) {
			continue
		}
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}
	if len(dates) == 0 {
		return nil, ErrInvalidRuleWindow
	}
	if len(dates) > limit {
		return nil, ErrRuleTooLarge
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func weekdaySet(days ...time.Weekday) map[time.Weekday]struct{} {
	set := make(map[time.Weekday]struct{}, len(days))
	for _, day := range days {
		set[day] = struct{}{}
	}
	return set
}
