// Package period resolves accounting periods for vote quotas. A period is a
// bounded window (calendar month or ISO week) identified by a stable string
// key; quotas reset at each period boundary.
package period

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Key identifies a single accounting period, formatted as "2006-01" for
// months or "2006-W02" for ISO weeks.
type Key string

// ErrInvalidKey is returned when a period key cannot be parsed under the
// active policy.
var ErrInvalidKey = errors.New("period: invalid key")

// Policy derives period keys from a clock and maps keys to their temporal
// bounds. Implementations must be deterministic: the same instant always
// resolves to the same key, and every key has exactly one successor and one
// predecessor.
type Policy interface {
	// Current returns the key of the period containing the given instant.
	Current(now time.Time) Key
	// Bounds returns the half-open interval [start, end) covered by the key.
	Bounds(key Key) (start, end time.Time, err error)
	// Next returns the immediate successor period.
	Next(key Key) (Key, error)
	// Prev returns the immediate predecessor period.
	Prev(key Key) (Key, error)
	// Parse validates a raw string and returns it as a Key.
	Parse(raw string) (Key, error)
}

var (
	monthKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	weekKeyPattern  = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)
)

// MonthPolicy treats each calendar month as one accounting period.
type MonthPolicy struct {
	loc *time.Location
}

// NewMonthPolicy returns a month policy evaluating instants in the given
// location. A nil location defaults to the local time zone.
func NewMonthPolicy(loc *time.Location) *MonthPolicy {
	if loc == nil {
		loc = time.Local
	}
	return &MonthPolicy{loc: loc}
}

// Current returns the key of the month containing now.
func (p *MonthPolicy) Current(now time.Time) Key {
	return Key(now.In(p.loc).Format("2006-01"))
}

// Bounds returns the first instant of the month and the first instant of the
// following month.
func (p *MonthPolicy) Bounds(key Key) (time.Time, time.Time, error) {
	year, month, err := parseMonthKey(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, p.loc)
	return start, start.AddDate(0, 1, 0), nil
}

// Next returns the key of the following month.
func (p *MonthPolicy) Next(key Key) (Key, error) {
	return p.shift(key, 1)
}

// Prev returns the key of the preceding month.
func (p *MonthPolicy) Prev(key Key) (Key, error) {
	return p.shift(key, -1)
}

// Parse validates a raw month key.
func (p *MonthPolicy) Parse(raw string) (Key, error) {
	if _, _, err := parseMonthKey(Key(raw)); err != nil {
		return "", err
	}
	return Key(raw), nil
}

func (p *MonthPolicy) shift(key Key, months int) (Key, error) {
	year, month, err := parseMonthKey(key)
	if err != nil {
		return "", err
	}
	shifted := time.Date(year, month, 1, 0, 0, 0, 0, p.loc).AddDate(0, months, 0)
	return p.Current(shifted), nil
}

func parseMonthKey(key Key) (int, time.Month, error) {
	match := monthKeyPattern.FindStringSubmatch(string(key))
	if match == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return year, time.Month(month), nil
}

// ISOWeekPolicy treats each ISO 8601 week (Monday through Sunday) as one
// accounting period.
type ISOWeekPolicy struct {
	loc *time.Location
}

// NewISOWeekPolicy returns a week policy evaluating instants in the given
// location. A nil location defaults to the local time zone.
func NewISOWeekPolicy(loc *time.Location) *ISOWeekPolicy {
	if loc == nil {
		loc = time.Local
	}
	return &ISOWeekPolicy{loc: loc}
}

// Current returns the key of the ISO week containing now.
func (p *ISOWeekPolicy) Current(now time.Time) Key {
	year, week := now.In(p.loc).ISOWeek()
	return Key(fmt.Sprintf("%04d-W%02d", year, week))
}

// Bounds returns the Monday 00:00 opening the week and the Monday 00:00
// opening the following week.
func (p *ISOWeekPolicy) Bounds(key Key) (time.Time, time.Time, error) {
	year, week, err := parseWeekKey(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if week > isoWeeksInYear(year, p.loc) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	start := isoWeekStart(year, week, p.loc)
	return start, start.AddDate(0, 0, 7), nil
}

// Next returns the key of the following week.
func (p *ISOWeekPolicy) Next(key Key) (Key, error) {
	return p.shift(key, 7)
}

// Prev returns the key of the preceding week.
func (p *ISOWeekPolicy) Prev(key Key) (Key, error) {
	return p.shift(key, -7)
}

// Parse validates a raw week key, including the week count of the year.
func (p *ISOWeekPolicy) Parse(raw string) (Key, error) {
	year, week, err := parseWeekKey(Key(raw))
	if err != nil {
		return "", err
	}
	if week > isoWeeksInYear(year, p.loc) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	return Key(raw), nil
}

func (p *ISOWeekPolicy) shift(key Key, days int) (Key, error) {
	start, _, err := p.Bounds(key)
	if err != nil {
		return "", err
	}
	return p.Current(start.AddDate(0, 0, days)), nil
}

func parseWeekKey(key Key) (int, int, error) {
	match := weekKeyPattern.FindStringSubmatch(string(key))
	if match == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	year, _ := strconv.Atoi(match[1])
	week, _ := strconv.Atoi(match[2])
	if week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return year, week, nil
}

// isoWeekStart returns the Monday 00:00 opening ISO week number week of the
// given ISO year. January 4th is always part of week 1.
func isoWeekStart(year, week int, loc *time.Location) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// isoWeeksInYear reports how many ISO weeks the given year has (52 or 53).
// December 28th always falls in the last week of its ISO year.
func isoWeeksInYear(year int, loc *time.Location) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, loc).ISOWeek()
	return week
}
