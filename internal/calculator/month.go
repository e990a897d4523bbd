package calculator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	// ErrInvalidInput is returned for negative prices or session counts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMonthFormat is returned when a month is not formatted as YYYY-MM.
	// It wraps ErrInvalidInput.
	ErrInvalidMonthFormat = fmt.Errorf("%w: month must be formatted as YYYY-MM", ErrInvalidInput)
)

var monthYearPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// MonthYear is a calendar month, the unit every bill covers.
type MonthYear struct {
	Year  int
	Month time.Month
}

// ParseMonthYear parses a YYYY-MM string such as "2025-11".
func ParseMonthYear(s string) (MonthYear, error) {
	m := monthYearPattern.FindStringSubmatch(s)
	if m == nil {
		return MonthYear{}, fmt.Errorf("%w: %q", ErrInvalidMonthFormat, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return MonthYear{}, fmt.Errorf("%w: %q", ErrInvalidMonthFormat, s)
	}
	return MonthYear{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the month containing t, using t's own location.
func MonthOf(t time.Time) MonthYear {
	return MonthYear{Year: t.Year(), Month: t.Month()}
}

// String formats the month as YYYY-MM.
func (m MonthYear) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start returns the first day of the month.
func (m MonthYear) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month.
func (m MonthYear) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// AddMonths returns the month n months after m (n may be negative).
func (m MonthYear) AddMonths(n int) MonthYear {
	return MonthOf(m.Start().AddDate(0, n, 0))
}

// Next returns the following month.
func (m MonthYear) Next() MonthYear {
	return m.AddMonths(1)
}

// DueDate returns the given day of the month, clamped to the month's last day.
func (m MonthYear) DueDate(day int) time.Time {
	last := m.End().Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether date falls inside the month.
func (m MonthYear) Contains(date time.Time) bool {
	return date.Year() == m.Year && date.Month() == m.Month
}

// DateOf truncates t to its calendar date at UTC midnight, keeping the
// year, month and day as observed in t's location.
func DateOf(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
