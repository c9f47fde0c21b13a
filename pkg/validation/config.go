// Package validation provides input and configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/credit-calculator/pkg/calendar"
	"github.com/iwvelando/credit-calculator/pkg/constants"
)

// longTermInstallments is the term above which a schedule is unusual enough
// to warn about.
const longTermInstallments = 420

// ScheduleSettings mirrors the schedule section of the configuration.
type ScheduleSettings struct {
	Method            string
	DueDayOfMonth     int
	MinDaysToFirstDue int
	Holidays          string
}

// ValidateScheduleSettings returns an error for settings the calculator
// cannot run with.
func ValidateScheduleSettings(s ScheduleSettings) error {
	if err := ValidateScheduleMethod(s.Method); err != nil {
		return err
	}
	if s.DueDayOfMonth < 1 || s.DueDayOfMonth > 31 {
		return fmt.Errorf("expected due day of month between 1 and 31, got %d", s.DueDayOfMonth)
	}
	if s.MinDaysToFirstDue < 0 {
		return fmt.Errorf("expected non-negative minimum days to first due date, got %d", s.MinDaysToFirstDue)
	}
	if _, ok := calendar.ByName(s.Holidays); !ok {
		return fmt.Errorf("expected holiday calendar of %s or %s, got %s",
			constants.HolidaysPL, constants.HolidaysNone, s.Holidays)
	}
	return nil
}

// ScheduleWarnings returns non-fatal observations about the settings and the
// requested number of installments.
func ScheduleWarnings(s ScheduleSettings, installments int) []string {
	var warnings []string

	if s.DueDayOfMonth > 28 {
		warnings = append(warnings, fmt.Sprintf(
			"Due day %d does not exist in every month; short months roll the installment into the following month",
			s.DueDayOfMonth))
	}

	if s.Method == constants.MethodClosedForm {
		warnings = append(warnings,
			"Closed-form schedule ignores actual day counts; interest will not match the ACT/365 schedule")
	}

	if installments > longTermInstallments {
		warnings = append(warnings, fmt.Sprintf("Loan term of %d installments exceeds %d months",
			installments, longTermInstallments))
	}

	return warnings
}
