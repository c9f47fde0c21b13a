// Package loans computes cents-exact annuity amortization schedules.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/mathutil"
	"github.com/iwvelando/credit-calculator/pkg/money"
)

// ErrInvalidInput is returned when a loan input violates its preconditions.
var ErrInvalidInput = errors.New("invalid loan input")

// Input holds validated loan terms.
type Input struct {
	StartDate        datetime.Date `json:"startDate"`
	Principal        float64       `json:"principal"`
	NominalRatePct   float64       `json:"nominalRatePct"`
	CommissionPct    float64       `json:"commissionPct"`
	InstallmentCount int           `json:"installmentCount"`
}

// Validate checks the preconditions the schedule relies on. A non-positive
// installment count is not an error; it yields an empty schedule.
func (in Input) Validate() error {
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if !isFinite(in.Principal) || in.Principal <= 0 {
		return fmt.Errorf("%w: principal must be > 0, got %v", ErrInvalidInput, in.Principal)
	}
	if !isFinite(in.NominalRatePct) || in.NominalRatePct < 0 {
		return fmt.Errorf("%w: nominal rate must be >= 0, got %v", ErrInvalidInput, in.NominalRatePct)
	}
	if !isFinite(in.CommissionPct) || in.CommissionPct < 0 {
		return fmt.Errorf("%w: commission must be >= 0, got %v", ErrInvalidInput, in.CommissionPct)
	}
	return nil
}

// ScheduleRow is a single installment of an amortization schedule.
type ScheduleRow struct {
	Index            int           `json:"index"`
	DueDate          datetime.Date `json:"dueDate"`
	PrincipalPart    money.Cents   `json:"principalPart"`
	InterestPart     money.Cents   `json:"interestPart"`
	CommissionPart   money.Cents   `json:"commissionPart"`
	PaymentTotal     money.Cents   `json:"paymentTotal"`
	RemainingBalance money.Cents   `json:"remainingBalance"`
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the
// standard amortization formula with a constant monthly rate.
func CalculateMonthlyPayment(principal, annualInterestRatePct float64, termMonths int) float64 {
	if annualInterestRatePct == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicInterestRate := MonthlyRate(annualInterestRatePct)
	discountFactor := 1.00 - math.Pow(1.00+periodicInterestRate, -float64(termMonths))
	return principal * periodicInterestRate / discountFactor
}

// MonthlyRate converts an annual percentage into a monthly fraction.
func MonthlyRate(annualInterestRatePct float64) float64 {
	return annualInterestRatePct / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// AnnualRate converts an annual percentage into a fraction.
func AnnualRate(annualInterestRatePct float64) float64 {
	return annualInterestRatePct / constants.PercentageMultiplier
}

// CalculateDayCountInterest returns the ACT/365 interest accrued on balance
// over the given number of days, rounded to cents.
func CalculateDayCountInterest(balance money.Cents, annualRate float64, days int) money.Cents {
	if annualRate == 0 {
		return 0
	}
	return money.ToCents(balance.Float64() * annualRate * (float64(days) / constants.DaysPerYear))
}

// CommissionAmount returns commissionPct percent of principal in cents.
func CommissionAmount(principal, commissionPct float64) money.Cents {
	return money.ToCents(mathutil.ApplyPercentage(principal, commissionPct))
}

// DayGaps returns the number of days in each period: from start to the first
// due date, then between consecutive due dates.
func DayGaps(start datetime.Date, dueDates []datetime.Date) []int {
	gaps := make([]int, len(dueDates))
	prev := start
	for i, due := range dueDates {
		gaps[i] = datetime.DaysBetween(prev, due)
		prev = due
	}
	return gaps
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
