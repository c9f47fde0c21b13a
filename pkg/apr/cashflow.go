// Package apr derives the annual percentage rate of charge (RRSO) of a loan
// as the internal rate of return of its cash flows.
package apr

import (
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/mathutil"
)

// CashFlow is a single borrower-side cash flow: positive amounts are received
// by the borrower, negative amounts are paid.
type CashFlow struct {
	OffsetDays int     `json:"offsetDays"`
	Amount     float64 `json:"amount"`
}

// BuildCashFlows projects the schedule onto a timed cash flow series. The
// first flow is the net disbursement (principal less commission) at day zero,
// followed by one outflow of the payment total per schedule row.
func BuildCashFlows(start datetime.Date, principal, commissionPct float64, schedule []loans.ScheduleRow) []CashFlow {
	commission := mathutil.ApplyPercentage(principal, commissionPct)

	flows := make([]CashFlow, 0, len(schedule)+1)
	flows = append(flows, CashFlow{OffsetDays: 0, Amount: principal - commission})
	for _, row := range schedule {
		flows = append(flows, CashFlow{
			OffsetDays: datetime.DaysBetween(start, row.DueDate),
			Amount:     -row.PaymentTotal.Float64(),
		})
	}
	return flows
}
