package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/duedates"
	"github.com/iwvelando/credit-calculator/pkg/money"
)

// Options selects the amortization method and due date rules.
type Options struct {
	// Method is constants.MethodDayCount (default) or constants.MethodClosedForm.
	Method   string
	DueDates duedates.Options
}

// DefaultOptions returns the ACT/365 method with default due date rules.
func DefaultOptions() Options {
	return Options{
		Method:   constants.MethodDayCount,
		DueDates: duedates.DefaultOptions(),
	}
}

// Scheduler computes amortization schedules for a fixed set of options.
// It holds no mutable state and is safe for concurrent use.
type Scheduler struct {
	opts Options
}

// NewScheduler creates a scheduler. An empty method selects the day-count
// method.
func NewScheduler(opts Options) *Scheduler {
	if opts.Method == "" {
		opts.Method = constants.MethodDayCount
	}
	return &Scheduler{opts: opts}
}

// Method returns the amortization method the scheduler uses.
func (s *Scheduler) Method() string {
	return s.opts.Method
}

// ComputeAnnuitySchedule computes the day-count annuity schedule using the
// default due date rules.
func ComputeAnnuitySchedule(input Input) ([]ScheduleRow, error) {
	return NewScheduler(DefaultOptions()).Compute(input)
}

// Compute returns the per-installment breakdown for input. An installment
// count of zero or less yields an empty schedule and no error.
func (s *Scheduler) Compute(input Input) ([]ScheduleRow, error) {
	n := input.InstallmentCount
	if n <= 0 {
		return []ScheduleRow{}, nil
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	dueDates, err := duedates.Generate(input.StartDate, n, s.opts.DueDates)
	if err != nil {
		return nil, err
	}

	principal := money.ToCents(input.Principal)
	commissionShare := money.DivRound(CommissionAmount(input.Principal, input.CommissionPct), n)

	var interest interestFunc
	var base money.Cents
	switch s.opts.Method {
	case constants.MethodDayCount:
		rate := AnnualRate(input.NominalRatePct)
		gaps := DayGaps(input.StartDate, dueDates)
		interest = func(i int, balance money.Cents) money.Cents {
			return CalculateDayCountInterest(balance, rate, gaps[i])
		}
		base = solveBasePayment(principal, n, interest)
		if simulateEndBalance(principal, base, n, interest) > 0 {
			return nil, fmt.Errorf("%w: nominal rate %v%% cannot be amortized over %d installments", ErrInvalidInput, input.NominalRatePct, n)
		}
	case constants.MethodClosedForm:
		rate := MonthlyRate(input.NominalRatePct)
		interest = func(_ int, balance money.Cents) money.Cents {
			if rate == 0 {
				return 0
			}
			return money.MulRatio(balance, rate)
		}
		payment := CalculateMonthlyPayment(input.Principal, input.NominalRatePct, n)
		if !isFinite(payment) || payment*constants.DecimalPrecision > float64(maxBasePayment(n)) {
			return nil, fmt.Errorf("%w: nominal rate %v%% cannot be amortized over %d installments", ErrInvalidInput, input.NominalRatePct, n)
		}
		base = money.ToCents(payment)
	default:
		return nil, fmt.Errorf("unknown schedule method %q", s.opts.Method)
	}

	return materialize(principal, base, commissionShare, dueDates, interest), nil
}

// interestFunc returns the interest for period i on the given balance.
type interestFunc func(i int, balance money.Cents) money.Cents

// maxSimulatedBalance bounds the balances a trial payment may reach, keeping
// the simulation clear of int64 overflow.
const maxSimulatedBalance = money.Cents(math.MaxInt64 / 4)

// simulateEndBalance runs the amortization with a constant base payment and
// returns the balance left after the last period. The sign of the result is
// non-increasing in payment. The run stops early once the sign is settled:
// a non-positive balance only falls further, and a positive balance above
// what the remaining payments can repay never amortizes. In those cases only
// the sign of the result is meaningful.
func simulateEndBalance(principal, payment money.Cents, n int, interest interestFunc) money.Cents {
	balance := principal
	for i := 0; i < n; i++ {
		if balance <= 0 {
			return balance
		}
		remaining := money.Cents(n - i)
		if balance/remaining > payment {
			return balance
		}
		accrued := interest(i, balance)
		if accrued/remaining > payment {
			return accrued
		}
		balance -= payment - accrued
	}
	return balance
}

// maxBasePayment is the largest trial payment for n periods whose simulation
// stays within maxSimulatedBalance.
func maxBasePayment(n int) money.Cents {
	return maxSimulatedBalance/money.Cents(2*n) - 1
}

// solveBasePayment finds the smallest base payment in cents that leaves a
// non-positive ending balance, by integer bisection over [0, 2*principal].
func solveBasePayment(principal money.Cents, n int, interest interestFunc) money.Cents {
	ceiling := maxBasePayment(n)
	low, high := money.Cents(0), 2*principal
	if high > ceiling || high < 0 {
		high = ceiling
	}
	// Very high rates can make 2*principal per period inadequate.
	for high < ceiling && simulateEndBalance(principal, high, n, interest) > 0 {
		if high > ceiling/2 {
			high = ceiling
		} else {
			high *= 2
		}
	}

	for low < high {
		mid := low + (high-low)/2
		if simulateEndBalance(principal, mid, n, interest) > 0 {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}

// materialize builds the schedule rows for a solved base payment. A row never
// repays more principal than is outstanding and the last row repays exactly
// the remaining balance, so principal parts always sum to principal. Every
// row is billed the base payment plus its commission share, including rows
// whose principal part was clamped.
func materialize(principal, base, commissionShare money.Cents, dueDates []datetime.Date, interest interestFunc) []ScheduleRow {
	n := len(dueDates)
	rows := make([]ScheduleRow, 0, n)
	balance := principal

	for i := 0; i < n; i++ {
		interestPart := interest(i, balance)
		principalPart := base - interestPart

		if i == n-1 {
			principalPart = balance
		}
		if principalPart > balance {
			principalPart = balance
		}
		balance -= principalPart

		rows = append(rows, ScheduleRow{
			Index:            i + 1,
			DueDate:          dueDates[i],
			PrincipalPart:    principalPart,
			InterestPart:     interestPart,
			CommissionPart:   commissionShare,
			PaymentTotal:     base + commissionShare,
			RemainingBalance: balance,
		})
	}
	return rows
}
