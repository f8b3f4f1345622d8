package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DayMode selects how fractional day offsets are laid onto the calendar.
type DayMode string

const (
	// DayModeCalendar adds offsets straight onto the calendar, weekends included.
	DayModeCalendar DayMode = "calendar"
	// DayModeBusiness counts whole days on Monday-Friday only.
	DayModeBusiness DayMode = "business"
)

// ParseDayMode converts a case-insensitive mode name.
func ParseDayMode(value string) (DayMode, error) {
	switch DayMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", DayModeCalendar:
		return DayModeCalendar, nil
	case DayModeBusiness:
		return DayModeBusiness, nil
	default:
		return "", fmt.Errorf("unknown day mode %q", value)
	}
}

// AddDays offsets start by a non-negative fractional number of days.
func AddDays(start time.Time, days float64, mode DayMode) time.Time {
	if days <= 0 {
		if mode == DayModeBusiness {
			return nextWeekday(start)
		}
		return start
	}
	whole := math.Floor(days)
	frac := time.Duration((days - whole) * float64(24*time.Hour))

	if mode != DayModeBusiness {
		return start.AddDate(0, 0, int(whole)).Add(frac)
	}

	t := nextWeekday(start)
	for added := 0; added < int(whole); {
		t = t.AddDate(0, 0, 1)
		if !isWeekend(t) {
			added++
		}
	}
	return nextWeekday(t.Add(frac))
}

// RoundTo rounds value to the nearest multiple of step.
func RoundTo(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	inv := 1 / step
	return math.Round(value*inv) / inv
}

func nextWeekday(t time.Time) time.Time {
	for isWeekend(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func isWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}
