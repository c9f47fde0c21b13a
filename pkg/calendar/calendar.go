// Package calendar classifies calendar dates as working or non-working days
// and shifts dates onto the next working day.
package calendar

import (
	"time"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
)

// HolidayPredicate reports whether a date is a holiday. Implementations must be
// pure; they are queried, never owned.
type HolidayPredicate func(datetime.Date) bool

// NoHolidays treats every day as a non-holiday.
func NoHolidays(datetime.Date) bool {
	return false
}

// IsWeekend reports whether the date falls on a Saturday or Sunday.
func IsWeekend(date datetime.Date) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// IsWorkingDay reports whether the date is neither a weekend day nor a holiday
// according to isHoliday. A nil predicate means no holidays.
func IsWorkingDay(date datetime.Date, isHoliday HolidayPredicate) bool {
	if isHoliday == nil {
		isHoliday = NoHolidays
	}
	return !IsWeekend(date) && !isHoliday(date)
}

// ShiftForwardToWorkingDay returns the first working day on or after date.
// Holiday sets are finite and sparse, so the loop always terminates.
func ShiftForwardToWorkingDay(date datetime.Date, isHoliday HolidayPredicate) datetime.Date {
	for !IsWorkingDay(date, isHoliday) {
		date = date.AddDays(1)
	}
	return date
}

// ByName returns the holiday predicate registered under name ("pl" or "none").
func ByName(name string) (HolidayPredicate, bool) {
	switch name {
	case constants.HolidaysPL:
		return IsStatutoryHoliday, true
	case "", constants.HolidaysNone:
		return NoHolidays, true
	default:
		return nil, false
	}
}
