package period

import (
	"errors"
	"testing"
	"time"
)

func TestMonthPolicy_Current(t *testing.T) {
	t.Parallel()

	policy := NewMonthPolicy(time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want Key
	}{
		{"mid month", time.Date(2025, time.July, 15, 12, 0, 0, 0, time.UTC), "2025-07"},
		{"first instant", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), "2025-07"},
		{"last instant", time.Date(2025, time.July, 31, 23, 59, 59, 0, time.UTC), "2025-07"},
		{"year boundary", time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC), "2024-12"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := policy.Current(tc.now); got != tc.want {
				t.Fatalf("Current(%v) = %q, want %q", tc.now, got, tc.want)
			}
		})
	}
}

func TestMonthPolicy_Bounds(t *testing.T) {
	t.Parallel()

	policy := NewMonthPolicy(time.UTC)

	start, end, err := policy.Bounds("2025-02")
	if err != nil {
		t.Fatalf("Bounds returned error: %v", err)
	}
	if want := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}
	if want := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Fatalf("end = %v, want %v", end, want)
	}
}

func TestMonthPolicy_NextPrevRollsYears(t *testing.T) {
	t.Parallel()

	policy := NewMonthPolicy(time.UTC)

	next, err := policy.Next("2024-12")
	if err != nil || next != "2025-01" {
		t.Fatalf("Next(2024-12) = %q, %v; want 2025-01", next, err)
	}

	prev, err := policy.Prev("2025-01")
	if err != nil || prev != "2024-12" {
		t.Fatalf("Prev(2025-01) = %q, %v; want 2024-12", prev, err)
	}
}

func TestMonthPolicy_ParseRejectsMalformedKeys(t *testing.T) {
	t.Parallel()

	policy := NewMonthPolicy(time.UTC)

	for _, raw := range []string{"2025-13", "2025-00", "2025-7", "202507", "2025-W07", "garbage"} {
		if _, err := policy.Parse(raw); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidKey", raw, err)
		}
	}
}

func TestISOWeekPolicy_CurrentMatchesISOWeek(t *testing.T) {
	t.Parallel()

	policy := NewISOWeekPolicy(time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want Key
	}{
		// 2024-12-30 is a Monday belonging to ISO week 1 of 2025.
		{"year spillover forward", time.Date(2024, time.December, 30, 10, 0, 0, 0, time.UTC), "2025-W01"},
		// 2021-01-01 is a Friday belonging to ISO week 53 of 2020.
		{"year spillover backward", time.Date(2021, time.January, 1, 10, 0, 0, 0, time.UTC), "2020-W53"},
		{"plain midyear week", time.Date(2025, time.July, 16, 10, 0, 0, 0, time.UTC), "2025-W29"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := policy.Current(tc.now); got != tc.want {
				t.Fatalf("Current(%v) = %q, want %q", tc.now, got, tc.want)
			}
		})
	}
}

func TestISOWeekPolicy_BoundsStartOnMondayAndSpanSevenDays(t *testing.T) {
	t.Parallel()

	policy := NewISOWeekPolicy(time.UTC)

	start, end, err := policy.Bounds("2025-W29")
	if err != nil {
		t.Fatalf("Bounds returned error: %v", err)
	}
	if start.Weekday() != time.Monday {
		t.Fatalf("start weekday = %v, want Monday", start.Weekday())
	}
	if want := time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}
	if got := end.Sub(start); got != 7*24*time.Hour {
		t.Fatalf("span = %v, want 168h", got)
	}
}

func TestISOWeekPolicy_BoundsRoundTripThroughCurrent(t *testing.T) {
	t.Parallel()

	policy := NewISOWeekPolicy(time.UTC)

	// Every instant inside the bounds must resolve back to the same key.
	key := Key("2020-W53")
	start, end, err := policy.Bounds(key)
	if err != nil {
		t.Fatalf("Bounds returned error: %v", err)
	}
	for probe := start; probe.Before(end); probe = probe.Add(24 * time.Hour) {
		if got := policy.Current(probe); got != key {
			t.Fatalf("Current(%v) = %q, want %q", probe, got, key)
		}
	}
}

func TestISOWeekPolicy_NextPrevCrossYearBoundary(t *testing.T) {
	t.Parallel()

	policy := NewISOWeekPolicy(time.UTC)

	next, err := policy.Next("2020-W53")
	if err != nil || next != "2021-W01" {
		t.Fatalf("Next(2020-W53) = %q, %v; want 2021-W01", next, err)
	}

	prev, err := policy.Prev("2021-W01")
	if err != nil || prev != "2020-W53" {
		t.Fatalf("Prev(2021-W01) = %q, %v; want 2020-W53", prev, err)
	}
}

func TestISOWeekPolicy_ParseRejectsOutOfRangeWeeks(t *testing.T) {
	t.Parallel()

	policy := NewISOWeekPolicy(time.UTC)

	// 2021 has 52 ISO weeks, 2020 has 53.
	if _, err := policy.Parse("2021-W53"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("Parse(2021-W53) error = %v, want ErrInvalidKey", err)
	}
	if _, err := policy.Parse("2020-W53"); err != nil {
		t.Fatalf("Parse(2020-W53) returned error: %v", err)
	}
	for _, raw := range []string{"2025-W00", "2025-W54", "2025-29", "2025W29"} {
		if _, err := policy.Parse(raw); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidKey", raw, err)
		}
	}
}
