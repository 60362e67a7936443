package core

import (
	"fmt"
	"time"
)

// MonthKey is a canonical "YYYY-MM" month identifier. It is the key of every
// per-month anchor map, so it must format identically wherever it is built.
type MonthKey string

// NewMonthKey builds the canonical key for a year and 1-based month.
func NewMonthKey(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// MonthKeyOf returns the key of the month t falls in.
func MonthKeyOf(t time.Time) MonthKey {
	return NewMonthKey(t.Year(), int(t.Month()))
}

// ParseMonthKey validates and parses a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("parse month key %q: %w", s, err)
	}
	return NewMonthKey(t.Year(), int(t.Month())), nil
}

// YearMonth splits the key into its year and 1-based month.
func (mk MonthKey) YearMonth() (int, int) {
	t, err := time.Parse("2006-01", string(mk))
	if err != nil {
		return 0, 0
	}
	return t.Year(), int(t.Month())
}

// Days returns the number of calendar days in the month, or 0 for a
// malformed key.
func (mk MonthKey) Days() int {
	year, month := mk.YearMonth()
	if year == 0 {
		return 0
	}
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Start returns midnight UTC on the first day of the month.
func (mk MonthKey) Start() time.Time {
	year, month := mk.YearMonth()
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the month, so that window checks can be
// inclusive of the final calendar day.
func (mk MonthKey) End() time.Time {
	year, month := mk.YearMonth()
	return time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
}

func (mk MonthKey) String() string {
	return string(mk)
}
