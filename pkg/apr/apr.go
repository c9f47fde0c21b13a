package apr

import (
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/loans"
)

// ComputeAprRrso returns the annual percentage rate of charge: the internal
// rate of return of the net disbursement and all scheduled payments.
func ComputeAprRrso(start datetime.Date, principal, commissionPct float64, schedule []loans.ScheduleRow) (RateResult, error) {
	return SolveIRR(BuildCashFlows(start, principal, commissionPct, schedule), DefaultIRROptions())
}

// ComputeEsp returns the effective interest rate, which is defined to be the
// same figure as the APR.
func ComputeEsp(start datetime.Date, principal, commissionPct float64, schedule []loans.ScheduleRow) (RateResult, error) {
	return ComputeAprRrso(start, principal, commissionPct, schedule)
}
