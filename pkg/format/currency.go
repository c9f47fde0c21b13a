// Package format renders money and rates for human-readable output.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/credit-calculator/pkg/money"
)

// CurrencyCode is appended by Currency.
const CurrencyCode = "PLN"

// Currency returns an amount with thousands separators and the currency code
// (e.g., "-1,234.56 PLN").
func Currency(amount money.Cents) string {
	return Amount(amount) + " " + CurrencyCode
}

// Amount returns an amount without a currency code but with separators
// (e.g., "-1,234.56").
func Amount(amount money.Cents) string {
	sign := ""
	v := int64(amount)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + formatPositiveCents(v)
}

// Percent returns a percentage with the given number of decimals
// (e.g., "12.34%").
func Percent(pct float64, decimals int) string {
	return strconv.FormatFloat(pct, 'f', decimals, 64) + "%"
}

func formatPositiveCents(cents int64) string {
	intPart := strconv.FormatInt(cents/100, 10)
	decPart := fmt.Sprintf("%02d", cents%100)

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
