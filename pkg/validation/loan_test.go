package validation

import (
	"testing"

	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() RawLoanInput {
	return RawLoanInput{
		StartDate:      "2026-01-05",
		Principal:      "10000",
		NominalRatePct: "8.5",
		CommissionPct:  "2",
		Installments:   "12",
	}
}

func TestParseLoanInputValid(t *testing.T) {
	input, errs := ParseLoanInput(validRaw())
	require.Nil(t, errs)

	assert.Equal(t, datetime.New(2026, 1, 5), input.StartDate)
	assert.Equal(t, 10000.0, input.Principal)
	assert.Equal(t, 8.5, input.NominalRatePct)
	assert.Equal(t, 2.0, input.CommissionPct)
	assert.Equal(t, 12, input.InstallmentCount)
	assert.NoError(t, input.Validate())
}

func TestParseLoanInputDecimalComma(t *testing.T) {
	raw := validRaw()
	raw.NominalRatePct = "7,25"
	raw.Principal = " 1500.50 "

	input, errs := ParseLoanInput(raw)
	require.Nil(t, errs)
	assert.Equal(t, 7.25, input.NominalRatePct)
	assert.Equal(t, 1500.5, input.Principal)
}

func TestParseLoanInputErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RawLoanInput)
		field   string
		message string
	}{
		{"missing start date", func(r *RawLoanInput) { r.StartDate = "" }, FieldStartDate, "Start date is required"},
		{"bad start date", func(r *RawLoanInput) { r.StartDate = "2026-02-30" }, FieldStartDate, "Start date must be a valid date"},
		{"zero principal", func(r *RawLoanInput) { r.Principal = "0" }, FieldPrincipal, "Principal must be > 0"},
		{"negative principal", func(r *RawLoanInput) { r.Principal = "-5" }, FieldPrincipal, "Principal must be > 0"},
		{"text principal", func(r *RawLoanInput) { r.Principal = "abc" }, FieldPrincipal, "Principal must be a number"},
		{"negative rate", func(r *RawLoanInput) { r.NominalRatePct = "-0.1" }, FieldNominalRatePct, "Nominal interest rate must be >= 0"},
		{"missing rate", func(r *RawLoanInput) { r.NominalRatePct = "  " }, FieldNominalRatePct, "Nominal interest rate is required"},
		{"negative commission", func(r *RawLoanInput) { r.CommissionPct = "-1" }, FieldCommissionPct, "Commission must be >= 0"},
		{"fractional installments", func(r *RawLoanInput) { r.Installments = "12.5" }, FieldInstallments, "Number of installments must be an integer"},
		{"zero installments", func(r *RawLoanInput) { r.Installments = "0" }, FieldInstallments, "Number of installments must be >= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)

			input, errs := ParseLoanInput(raw)
			require.NotNil(t, errs)
			assert.Equal(t, loans.Input{}, input)
			assert.Equal(t, tt.message, errs[tt.field])
			assert.Len(t, errs, 1)
		})
	}
}

func TestParseLoanInputCollectsAllFields(t *testing.T) {
	_, errs := ParseLoanInput(RawLoanInput{})
	require.NotNil(t, errs)
	assert.Len(t, errs, 5)
	assert.Contains(t, errs.Error(), "commissionPct: Commission is required")
	assert.Contains(t, errs.Error(), "startDate: Start date is required")
}

func TestFieldErrorsStableOrder(t *testing.T) {
	errs := FieldErrors{"principal": "b", "installments": "a"}
	assert.Equal(t, "invalid loan input: installments: a; principal: b", errs.Error())
}

func TestLegalCap(t *testing.T) {
	assert.InDelta(t, 9.25, MaxNominalRatePct(5.75), 1e-12)

	input := loans.Input{NominalRatePct: 9.25}
	assert.Nil(t, CheckLegalCap(input, 5.75), "rate exactly at the cap is allowed")

	input.NominalRatePct = 9.26
	errs := CheckLegalCap(input, 5.75)
	require.NotNil(t, errs)
	assert.Equal(t, "Nominal rate exceeds legal cap (9.25%)", errs[FieldNominalRatePct])
}
