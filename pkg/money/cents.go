// Package money implements fixed-point currency amounts in integer cents.
//
// Schedule arithmetic is carried out on Cents only. Every conversion from a
// fractional amount rounds half away from zero exactly once, which keeps
// schedules reproducible bit-for-bit.
package money

import (
	"fmt"
	"math"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/shopspring/decimal"
)

// Cents is a signed amount in the smallest currency unit.
type Cents int64

var hundred = decimal.NewFromInt(constants.DecimalPrecision)

// ToCents converts a decimal amount to cents, rounding half away from zero.
// The float is read through its shortest decimal representation, so 1.005
// becomes 101 cents rather than 100. Infinite amounts saturate.
func ToCents(amount float64) Cents {
	switch {
	case math.IsInf(amount, 1):
		return math.MaxInt64
	case math.IsInf(amount, -1):
		return math.MinInt64
	}
	return FromDecimal(decimal.NewFromFloat(amount))
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// FromDecimal converts a decimal amount to cents, rounding half away from zero.
// Amounts beyond the range of Cents saturate at its bounds.
func FromDecimal(amount decimal.Decimal) Cents {
	cents := amount.Mul(hundred).Round(0)
	switch {
	case cents.GreaterThan(maxCents):
		return math.MaxInt64
	case cents.LessThan(minCents):
		return math.MinInt64
	}
	return Cents(cents.IntPart())
}

// ParseAmount parses a decimal string such as "1234.56" into cents.
func ParseAmount(value string) (Cents, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return FromDecimal(d), nil
}

// FromCents converts cents back to a decimal amount.
func FromCents(c Cents) float64 {
	return c.Float64()
}

// Float64 returns the amount in currency units.
func (c Cents) Float64() float64 {
	f, _ := c.Decimal().Float64()
	return f
}

// Decimal returns the amount in currency units as an exact decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount with two decimals, e.g. "-1234.56".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Add returns a + b.
func Add(a, b Cents) Cents {
	return a + b
}

// Sub returns a - b.
func Sub(a, b Cents) Cents {
	return a - b
}

// Sum adds up all amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}

// MulRatio multiplies an amount by a ratio and rounds the product half away
// from zero.
func MulRatio(c Cents, ratio float64) Cents {
	return FromDecimal(c.Decimal().Mul(decimal.NewFromFloat(ratio)))
}

// DivRound divides an amount into n parts, rounding half away from zero.
// It panics if n is zero.
func DivRound(c Cents, n int) Cents {
	if n == 0 {
		panic("money: division by zero")
	}
	num, den := int64(c), int64(n)
	if den < 0 {
		num, den = -num, -den
	}
	q, r := num/den, num%den
	if r < 0 {
		r = -r
	}
	if 2*r >= den {
		if num < 0 {
			q--
		} else {
			q++
		}
	}
	return Cents(q)
}
