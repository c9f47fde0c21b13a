// Package datetime provides the calendar date type shared by the calendar,
// due date and schedule packages.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/credit-calculator/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and is also the output
	// date format.
	DateLayout = constants.DateLayout

	secondsPerDay = 24 * 60 * 60
)

// Date is a calendar date without a time-of-day component. All arithmetic is
// carried out at UTC midnight so daylight saving and local timezones never
// shift a date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the date for the given parts. Out-of-range values are normalized
// the way time.Date does, e.g. February 31 becomes early March.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar date of t in its own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse parses an ISO yyyy-mm-dd date.
func Parse(value string) (Date, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return FromTime(t), nil
}

// MustParse parses a date string and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParse(value string) Date {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns the date as a UTC midnight time.Time.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as yyyy-mm-dd.
func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the date offset by the given number of days.
func (d Date) AddDays(days int) Date {
	return New(d.Year, d.Month, d.Day+days)
}

// AddMonths returns the date offset by the given number of months, keeping the
// day of month and normalizing overflow like time.AddDate.
func (d Date) AddMonths(months int) Date {
	return New(d.Year, d.Month+time.Month(months), d.Day)
}

// WithDay returns the given day in the month of d, normalized.
func (d Date) WithDay(day int) Date {
	return New(d.Year, d.Month, day)
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return DaysBetween(d, other) > 0
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return DaysBetween(d, other) < 0
}

// DaysBetween returns the number of whole days from a to b; negative when b is
// before a.
func DaysBetween(a, b Date) int {
	return int((b.Time().Unix() - a.Time().Unix()) / secondsPerDay)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
