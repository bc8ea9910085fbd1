package models

import (
	"errors"
	"fmt"
	"time"
)

// DayLayout is the ISO calendar-date layout used for every day key.
const DayLayout = "2006-01-02"

// ErrInvalidDayKey indicates a string that is not a valid YYYY-MM-DD calendar date.
var ErrInvalidDayKey = errors.New("invalid day key")

// DayKey is a calendar date formatted as YYYY-MM-DD. It partitions per-day records.
type DayKey string

// DayKeyOf returns the day key of t's calendar date in t's own location.
func DayKeyOf(t time.Time) DayKey {
	return DayKey(t.Format(DayLayout))
}

// ParseDayKey validates value and returns it as a DayKey.
func ParseDayKey(value string) (DayKey, error) {
	t, err := time.Parse(DayLayout, value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDayKey, value)
	}
	// time.Parse accepts some non-canonical inputs; the key must round-trip.
	if t.Format(DayLayout) != value {
		return "", fmt.Errorf("%w: %q", ErrInvalidDayKey, value)
	}
	return DayKey(value), nil
}

// Time returns midnight UTC of the day.
func (d DayKey) Time() time.Time {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Valid reports whether d is a well-formed day key.
func (d DayKey) Valid() bool {
	_, err := ParseDayKey(string(d))
	return err == nil
}

// AddDays walks n calendar days forward (or backward when n is negative).
func (d DayKey) AddDays(n int) DayKey {
	return DayKeyOf(d.Time().AddDate(0, 0, n))
}

// Year returns the calendar year of the day.
func (d DayKey) Year() int {
	return d.Time().Year()
}

// Month returns the calendar month of the day.
func (d DayKey) Month() time.Month {
	return d.Time().Month()
}

// InMonth reports whether the day falls in the given calendar month.
func (d DayKey) InMonth(year int, month time.Month) bool {
	t := d.Time()
	if t.IsZero() {
		return false
	}
	return t.Year() == year && t.Month() == month
}

// DaysSince returns the number of whole calendar days from earlier to d.
// The result is negative when earlier is after d.
func (d DayKey) DaysSince(earlier DayKey) int {
	return int(d.Time().Sub(earlier.Time()).Hours() / 24)
}

// Window returns the n day keys ending with d, oldest first.
func (d DayKey) Window(n int) []DayKey {
	if n <= 0 {
		return nil
	}
	out := make([]DayKey, n)
	for i := 0; i < n; i++ {
		out[i] = d.AddDays(i - (n - 1))
	}
	return out
}

// Compact returns the day without separators, e.g. 20240107.
func (d DayKey) Compact() string {
	t := d.Time()
	if t.IsZero() {
		return ""
	}
	return t.Format("20060102")
}

func (d DayKey) String() string {
	return string(d)
}
