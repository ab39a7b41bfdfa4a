package timeutil

import (
	"testing"
	"time"
)

func TestTodayAndTomorrowUseInjectedClock(t *testing.T) {
	SetNowFunc(func() time.Time {
		return time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)
	})
	defer SetNowFunc(nil)

	if got := Today(); got != "2026-08-31" {
		t.Errorf("Today() = %s, want 2026-08-31", got)
	}
	// Month rollover.
	if got := Tomorrow(); got != "2026-09-01" {
		t.Errorf("Tomorrow() = %s, want 2026-09-01", got)
	}
}

func TestDaysAgo(t *testing.T) {
	cases := []struct {
		date string
		n    int
		want string
	}{
		{"2026-08-21", 15, "2026-08-06"},
		{"2026-08-21", 10, "2026-08-11"},
		{"2026-03-05", 10, "2026-02-23"},
		{"2026-08-21", 0, "2026-08-21"},
		{"not-a-date", 5, ""},
	}
	for _, c := range cases {
		if got := DaysAgo(c.date, c.n); got != c.want {
			t.Errorf("DaysAgo(%q, %d) = %q, want %q", c.date, c.n, got, c.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		{"2026-08-21", "2026-08-21", 0},
		{"2026-08-11", "2026-08-21", 10},
		{"2026-08-21", "2026-08-11", -10},
		{"2026-02-27", "2026-03-02", 3},
		{"2025-12-30", "2026-01-02", 3},
	}
	for _, c := range cases {
		got, err := DaysBetween(c.from, c.to)
		if err != nil {
			t.Errorf("DaysBetween(%q, %q) returned error: %v", c.from, c.to, err)
			continue
		}
		if got != c.want {
			t.Errorf("DaysBetween(%q, %q) = %d, want %d", c.from, c.to, got, c.want)
		}
	}
}

func TestDaysBetweenRejectsMalformedInput(t *testing.T) {
	if _, err := DaysBetween("garbage", "2026-08-21"); err == nil {
		t.Error("Expected error for malformed from date")
	}
	if _, err := DaysBetween("2026-08-21", "garbage"); err == nil {
		t.Error("Expected error for malformed to date")
	}
}
