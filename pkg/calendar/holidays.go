package calendar

import (
	"time"

	"github.com/iwvelando/credit-calculator/pkg/datetime"
)

type monthDay struct {
	month time.Month
	day   int
}

// Fixed-date statutory holidays in Poland.
var fixedHolidays = [...]monthDay{
	{time.January, 1},   // New Year's Day
	{time.January, 6},   // Epiphany
	{time.May, 1},       // Labour Day
	{time.May, 3},       // Constitution Day
	{time.August, 15},   // Assumption of Mary
	{time.November, 1},  // All Saints' Day
	{time.November, 11}, // Independence Day
	{time.December, 25}, // Christmas Day
	{time.December, 26}, // Second Day of Christmas
}

// Offsets of the movable holidays from Easter Sunday.
const (
	easterMondayOffset  = 1
	pentecostOffset     = 49
	corpusChristiOffset = 60
)

// EasterSunday computes Easter Sunday of the given Gregorian year using the
// anonymous Gregorian (Meeus/Jones/Butcher) algorithm.
func EasterSunday(year int) datetime.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return datetime.New(year, time.Month(month), day)
}

// IsStatutoryHoliday reports whether the date is a Polish public holiday:
// one of the fixed-date holidays, Easter Sunday, Easter Monday, Pentecost or
// Corpus Christi.
func IsStatutoryHoliday(date datetime.Date) bool {
	for _, h := range fixedHolidays {
		if date.Month == h.month && date.Day == h.day {
			return true
		}
	}

	easter := EasterSunday(date.Year)
	switch datetime.DaysBetween(easter, date) {
	case 0, easterMondayOffset, pentecostOffset, corpusChristiOffset:
		return true
	default:
		return false
	}
}
