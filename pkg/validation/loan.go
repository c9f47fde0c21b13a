package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Loan input field names, shared by FieldErrors keys and the JSON API.
const (
	FieldStartDate      = "startDate"
	FieldPrincipal      = "principal"
	FieldNominalRatePct = "nominalRatePct"
	FieldCommissionPct  = "commissionPct"
	FieldInstallments   = "installments"
)

// legalCapTolerance absorbs float noise when the rate sits exactly on the cap.
const legalCapTolerance = 1e-9

// RawLoanInput holds user-provided loan terms as entered, before coercion.
type RawLoanInput struct {
	StartDate      string `json:"startDate" yaml:"startDate" mapstructure:"startDate"`
	Principal      string `json:"principal" yaml:"principal" mapstructure:"principal"`
	NominalRatePct string `json:"nominalRatePct" yaml:"nominalRatePct" mapstructure:"nominalRatePct"`
	CommissionPct  string `json:"commissionPct" yaml:"commissionPct" mapstructure:"commissionPct"`
	Installments   string `json:"installments" yaml:"installments" mapstructure:"installments"`
}

// FieldErrors maps a field name to the first problem found with it.
type FieldErrors map[string]string

// Error implements error with the fields in a stable order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, fe[field]))
	}
	return "invalid loan input: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// ParseLoanInput coerces raw values into a valid loans.Input. On failure the
// returned FieldErrors is non-nil and holds one message per offending field.
func ParseLoanInput(raw RawLoanInput) (loans.Input, FieldErrors) {
	errs := make(FieldErrors)
	var input loans.Input

	startDate := strings.TrimSpace(raw.StartDate)
	if startDate == "" {
		errs.add(FieldStartDate, "Start date is required")
	} else if d, err := datetime.Parse(startDate); err != nil {
		errs.add(FieldStartDate, "Start date must be a valid date")
	} else {
		input.StartDate = d
	}

	if d, ok := parseNumber(errs, FieldPrincipal, "Principal", raw.Principal); ok {
		if !d.IsPositive() {
			errs.add(FieldPrincipal, "Principal must be > 0")
		}
		input.Principal = d.InexactFloat64()
	}

	if d, ok := parseNumber(errs, FieldNominalRatePct, "Nominal interest rate", raw.NominalRatePct); ok {
		if d.IsNegative() {
			errs.add(FieldNominalRatePct, "Nominal interest rate must be >= 0")
		}
		input.NominalRatePct = d.InexactFloat64()
	}

	if d, ok := parseNumber(errs, FieldCommissionPct, "Commission", raw.CommissionPct); ok {
		if d.IsNegative() {
			errs.add(FieldCommissionPct, "Commission must be >= 0")
		}
		input.CommissionPct = d.InexactFloat64()
	}

	if d, ok := parseNumber(errs, FieldInstallments, "Number of installments", raw.Installments); ok {
		switch {
		case !d.IsInteger():
			errs.add(FieldInstallments, "Number of installments must be an integer")
		case d.LessThan(decimal.NewFromInt(1)):
			errs.add(FieldInstallments, "Number of installments must be >= 1")
		default:
			input.InstallmentCount = int(d.IntPart())
		}
	}

	if len(errs) > 0 {
		return loans.Input{}, errs
	}
	return input, nil
}

// parseNumber parses a decimal, accepting a comma as the decimal separator.
func parseNumber(errs FieldErrors, field, label, value string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		errs.add(field, label+" is required")
		return decimal.Zero, false
	}
	if !strings.Contains(trimmed, ".") {
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		errs.add(field, label+" must be a number")
		return decimal.Zero, false
	}
	return d, true
}

// MaxNominalRatePct returns the statutory maximum nominal rate for a given
// reference rate.
func MaxNominalRatePct(referenceRatePct float64) float64 {
	return referenceRatePct + constants.LegalCapMarginPct
}

// CheckLegalCap reports a field error when the nominal rate exceeds the cap
// derived from the reference rate. A rate exactly at the cap is allowed.
func CheckLegalCap(input loans.Input, referenceRatePct float64) FieldErrors {
	maxRate := MaxNominalRatePct(referenceRatePct)
	if input.NominalRatePct > maxRate && !mathutil.WithinTolerance(input.NominalRatePct, maxRate, legalCapTolerance) {
		return FieldErrors{
			FieldNominalRatePct: fmt.Sprintf("Nominal rate exceeds legal cap (%.2f%%)", maxRate),
		}
	}
	return nil
}
