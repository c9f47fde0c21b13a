// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"

	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/money"
)

// FindRow finds a schedule row by its 1-based installment index.
// Returns a pointer to the row if found, nil otherwise.
func FindRow(rows []loans.ScheduleRow, index int) *loans.ScheduleRow {
	for i := range rows {
		if rows[i].Index == index {
			return &rows[i]
		}
	}
	return nil
}

// CheckSchedule returns the first repayment invariant the schedule violates,
// or nil. It checks that principal parts add up to principal, the balance
// ends at zero and never goes negative, due dates strictly increase and every
// row bills the same non-negative installment.
func CheckSchedule(rows []loans.ScheduleRow, principal money.Cents) error {
	if len(rows) == 0 {
		return nil
	}

	var principalSum money.Cents
	for i, row := range rows {
		if row.Index != i+1 {
			return fmt.Errorf("row %d has index %d", i, row.Index)
		}
		if i > 0 && !rows[i-1].DueDate.Before(row.DueDate) {
			return fmt.Errorf("row %d due date %s is not after %s", row.Index, row.DueDate, rows[i-1].DueDate)
		}
		if row.RemainingBalance < 0 {
			return fmt.Errorf("row %d has negative balance %s", row.Index, row.RemainingBalance)
		}
		if row.PaymentTotal < 0 {
			return fmt.Errorf("row %d has negative payment %s", row.Index, row.PaymentTotal)
		}
		if row.PaymentTotal != rows[0].PaymentTotal {
			return fmt.Errorf("row %d payment %s differs from the first installment %s", row.Index, row.PaymentTotal, rows[0].PaymentTotal)
		}
		principalSum += row.PrincipalPart
	}

	if principalSum != principal {
		return fmt.Errorf("principal parts sum to %s, expected %s", principalSum, principal)
	}
	if last := rows[len(rows)-1]; last.RemainingBalance != 0 {
		return fmt.Errorf("final balance is %s, expected 0", last.RemainingBalance)
	}
	return nil
}
