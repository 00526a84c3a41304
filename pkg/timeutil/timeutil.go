// Package timeutil provides calendar-date helpers for the habit bot.
// Every "today" in the bot comes from a Calendar, which pairs a clock with
// the user's time zone, so that tests can pin the current date.
//
// Calendar dates are represented as time.Time values at midnight UTC. This
// keeps day arithmetic free of DST shifts regardless of the configured zone.
package timeutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Common date/time formats.
const (
	// FormatDate is the ISO 8601 calendar date format used in storage (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the wall-clock format used in schedule settings (HH:MM).
	FormatTime = "15:04"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// Calendar answers "what day is it" for the configured location.
type Calendar struct {
	clock    clockwork.Clock
	location *time.Location
}

// NewCalendar creates a calendar. A nil clock means the real clock and a nil
// location means time.Local.
func NewCalendar(clock clockwork.Clock, loc *time.Location) *Calendar {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{clock: clock, location: loc}
}

// Now returns the current instant in the calendar's location.
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.location)
}

// Today returns the current calendar date.
func (c *Calendar) Today() time.Time {
	return DateOf(c.Now())
}

// TodayString returns the current calendar date formatted as YYYY-MM-DD.
func (c *Calendar) TodayString() string {
	return FormatDateStr(c.Today())
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location {
	return c.location
}

// Clock returns the underlying clock.
func (c *Calendar) Clock() clockwork.Clock {
	return c.clock
}

// ══════════════════════════════════════════════════════════════════════════════
// DATES
// ══════════════════════════════════════════════════════════════════════════════

// Date creates a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf strips the clock part of t, keeping the date as seen in t's location.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, strings.TrimSpace(value), time.UTC)
}

// FormatDateStr formats a calendar date as YYYY-MM-DD.
func FormatDateStr(t time.Time) string {
	return t.Format(FormatDate)
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

// DaysBetween returns the signed number of whole days from one date to another.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// IsSameMonth checks if two dates fall into the same calendar month of the same year.
func IsSameMonth(t1, t2 time.Time) bool {
	return t1.Year() == t2.Year() && t1.Month() == t2.Month()
}

// ══════════════════════════════════════════════════════════════════════════════
// LOCATIONS & WALL CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// LoadLocation resolves a time zone name. Empty and "Local" mean the host zone.
func LoadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	case "UTC", "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses an "HH:MM" string.
func ParseClockTime(value string) (ClockTime, error) {
	t, err := time.Parse(FormatTime, strings.TrimSpace(value))
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q (want HH:MM): %w", value, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String returns the time of day as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
