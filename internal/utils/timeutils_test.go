package utils

import (
	"testing"
	"time"
)

func TestAddDaysCalendar(t *testing.T) {
	start := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC) // Friday
	got := AddDays(start, 2.5, DayModeCalendar)
	want := time.Date(2026, 3, 8, 21, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !AddDays(start, 0, DayModeCalendar).Equal(start) {
		t.Fatalf("zero offset should return start")
	}
}

func TestAddDaysBusinessSkipsWeekend(t *testing.T) {
	start := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC) // Friday
	got := AddDays(start, 2, DayModeBusiness)
	want := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) // Tuesday
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	saturday := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	got = AddDays(saturday, 1, DayModeBusiness)
	want = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected weekend start to roll to Monday first, got %v", got)
	}
}

func TestRoundTo(t *testing.T) {
	cases := []struct {
		value, step, want float64
	}{
		{3.45, 0.5, 3.5},
		{3.24, 0.5, 3.0},
		{3.29999, 0.1, 3.3},
		{7.25, 0.1, 7.3},
		{4.2, 0, 4.2},
	}
	for _, tc := range cases {
		if got := RoundTo(tc.value, tc.step); got != tc.want {
			t.Fatalf("RoundTo(%v, %v) = %v, want %v", tc.value, tc.step, got, tc.want)
		}
	}
}

func TestParseDayMode(t *testing.T) {
	if mode, err := ParseDayMode(""); err != nil || mode != DayModeCalendar {
		t.Fatalf("expected calendar default, got %q %v", mode, err)
	}
	if mode, err := ParseDayMode(" Business "); err != nil || mode != DayModeBusiness {
		t.Fatalf("expected business mode, got %q %v", mode, err)
	}
	if _, err := ParseDayMode("lunar"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
