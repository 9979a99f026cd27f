package core

import (
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar dates. Because it is
// zero-padded, lexicographic comparison of encoded dates matches
// chronological order.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON renders the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Period is a relative aggregation window anchored at the current date.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Valid reports whether p names a known period.
func (p Period) Valid() bool {
	return p == PeriodWeek || p == PeriodMonth || p == PeriodYear
}

// WindowStart truncates now to the start of the period: Monday for weeks,
// the first of the month, or January 1st. The zero Date means "all time".
func (p Period) WindowStart(now time.Time) Date {
	switch p {
	case PeriodWeek:
		// ISO week: Monday is day 1, Go's Sunday is 0.
		offset := (int(now.Weekday()) + 6) % 7
		start := now.AddDate(0, 0, -offset)
		return NewDate(start.Year(), int(start.Month()), start.Day())
	case PeriodMonth:
		return NewDate(now.Year(), int(now.Month()), 1)
	case PeriodYear:
		return NewDate(now.Year(), 1, 1)
	default:
		return Date{}
	}
}
