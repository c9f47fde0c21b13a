package apr

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/credit-calculator/pkg/constants"
)

// ErrRateNotBracketed is returned when the net present value has the same sign
// at both bounds even after expanding the upper bound.
var ErrRateNotBracketed = errors.New("rate not bracketed: NPV has the same sign at both bounds")

// RateResult is an annualized rate.
type RateResult struct {
	Rate    float64 `json:"rate"`    // fraction, e.g. 0.1234
	RatePct float64 `json:"ratePct"` // percentage, e.g. 12.34
}

func newRateResult(rate float64) RateResult {
	return RateResult{Rate: rate, RatePct: rate * constants.PercentageMultiplier}
}

// IRROptions tunes the bisection solver.
type IRROptions struct {
	Low           float64
	High          float64
	Tolerance     float64
	MaxIterations int
	// MaxExpansions bounds how many times High is doubled while searching
	// for a sign change.
	MaxExpansions int
}

// DefaultIRROptions returns the bracket [-0.9999, 10], tolerance 1e-10, 200
// iterations and 50 expansions.
func DefaultIRROptions() IRROptions {
	return IRROptions{
		Low:           constants.DefaultIRRLow,
		High:          constants.DefaultIRRHigh,
		Tolerance:     constants.DefaultIRRTolerance,
		MaxIterations: constants.DefaultIRRMaxIterations,
		MaxExpansions: constants.DefaultIRRMaxExpansions,
	}
}

// NPV discounts the flows at an annual rate using ACT/365 exponents.
func NPV(rate float64, flows []CashFlow) float64 {
	sum := 0.0
	for _, cf := range flows {
		t := float64(cf.OffsetDays) / constants.DaysPerYear
		sum += cf.Amount / math.Pow(1+rate, t)
	}
	return sum
}

// SolveIRR finds the annual rate at which the NPV of flows is zero by
// bisection. When the iteration budget runs out the midpoint of the final
// bracket is returned without error.
func SolveIRR(flows []CashFlow, opts IRROptions) (RateResult, error) {
	low, high := opts.Low, opts.High

	fLow := NPV(low, flows)
	fHigh := NPV(high, flows)

	for expand := 0; fLow*fHigh > 0 && expand < opts.MaxExpansions; expand++ {
		high *= 2
		fHigh = NPV(high, flows)
	}

	if fLow == 0 {
		return newRateResult(low), nil
	}
	if fHigh == 0 {
		return newRateResult(high), nil
	}
	if fLow*fHigh > 0 || math.IsNaN(fLow) || math.IsNaN(fHigh) {
		return RateResult{}, fmt.Errorf("%w: [%g, %g]", ErrRateNotBracketed, low, high)
	}

	for i := 0; i < opts.MaxIterations; i++ {
		mid := (low + high) / 2
		fMid := NPV(mid, flows)

		if math.Abs(fMid) < opts.Tolerance {
			return newRateResult(mid), nil
		}

		if fLow*fMid <= 0 {
			high = mid
		} else {
			low = mid
			fLow = fMid
		}
	}

	return newRateResult((low + high) / 2), nil
}
