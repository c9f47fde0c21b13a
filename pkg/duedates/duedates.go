// Package duedates generates installment due dates.
package duedates

import (
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/credit-calculator/pkg/calendar"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
)

// ErrInvalidDueDay is returned when the configured due day is outside 1..31.
var ErrInvalidDueDay = errors.New("due day of month must be between 1 and 31")

// Options controls due date generation.
type Options struct {
	// DueDayOfMonth is the day installments fall due on.
	DueDayOfMonth int
	// MinDaysToFirstDue is the minimum number of days between the start date
	// and the first installment.
	MinDaysToFirstDue int
	// IsHoliday marks non-working days in addition to weekends. Nil means no
	// holidays.
	IsHoliday calendar.HolidayPredicate
	// ShiftToWorkingDay moves due dates that fall on a weekend or holiday
	// forward to the next working day.
	ShiftToWorkingDay bool
}

// DefaultOptions returns due day 10, a 30 day minimum gap, no holidays and
// forward shifting enabled.
func DefaultOptions() Options {
	return Options{
		DueDayOfMonth:     constants.DefaultDueDayOfMonth,
		MinDaysToFirstDue: constants.DefaultMinDaysToFirstDue,
		ShiftToWorkingDay: true,
	}
}

// Validate checks the options for precondition violations.
func (o Options) Validate() error {
	if o.DueDayOfMonth < 1 || o.DueDayOfMonth > 31 {
		return fmt.Errorf("%w: got %d", ErrInvalidDueDay, o.DueDayOfMonth)
	}
	if o.MinDaysToFirstDue < 0 {
		return fmt.Errorf("minimum days to first due date must not be negative: got %d", o.MinDaysToFirstDue)
	}
	return nil
}

// Generate returns count due dates for a loan starting on start.
//
// The anchor month is the start month, moved forward once if its due day
// precedes start and once more if the gap to start is still shorter than
// MinDaysToFirstDue. Installment i falls on the due day of anchor month + i.
// A due day beyond the end of a short month rolls over into the next month
// (day 31 in February 2026 is March 3), and the following installment is still
// the due day of its own month, so dates stay strictly increasing.
func Generate(start datetime.Date, count int, opts Options) ([]datetime.Date, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return []datetime.Date{}, nil
	}

	year, month := start.Year, start.Month
	candidate := datetime.New(year, month, opts.DueDayOfMonth)
	if candidate.Before(start) {
		month++
		candidate = datetime.New(year, month, opts.DueDayOfMonth)
	}
	if datetime.DaysBetween(start, candidate) < opts.MinDaysToFirstDue {
		month++
	}

	dates := make([]datetime.Date, 0, count)
	for i := 0; i < count; i++ {
		due := datetime.New(year, month+time.Month(i), opts.DueDayOfMonth)
		if opts.ShiftToWorkingDay {
			due = calendar.ShiftForwardToWorkingDay(due, opts.IsHoliday)
		}
		dates = append(dates, due)
	}
	return dates, nil
}
