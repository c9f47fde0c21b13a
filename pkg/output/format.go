// Package output provides utilities for formatting and displaying calculation
// results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/credit-calculator/internal/calculator"
	"github.com/iwvelando/credit-calculator/internal/refrate"
	"github.com/iwvelando/credit-calculator/pkg/apr"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result writes a calculation result in the requested format.
func Result(w io.Writer, outputFormat string, result *calculator.Result) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, result)
	case constants.OutputFormatCSV:
		return CsvFormat(w, result)
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, result *calculator.Result) error {
	p := message.NewPrinter(language.English)
	in := result.Input

	_, _ = fmt.Fprintf(w, "--- Loan schedule (%s) ---\n", result.Method)
	_, _ = p.Fprintf(w, "Start date: %s | Principal: %.2f %s | Nominal rate: %s | Commission: %s | Installments: %d\n",
		in.StartDate, in.Principal, format.CurrencyCode,
		format.Percent(in.NominalRatePct, 2), format.Percent(in.CommissionPct, 2), in.InstallmentCount)
	_, _ = fmt.Fprintf(w, "#    | Due date   | Principal    | Interest     | Commission   | Payment      | Balance\n")
	_, _ = fmt.Fprintf(w, "____ | __________ | ____________ | ____________ | ____________ | ____________ | ____________\n")
	for _, row := range result.Schedule {
		_, _ = fmt.Fprintf(w, "%-4d | %s | %12s | %12s | %12s | %12s | %12s\n",
			row.Index, row.DueDate,
			format.Amount(row.PrincipalPart), format.Amount(row.InterestPart),
			format.Amount(row.CommissionPart), format.Amount(row.PaymentTotal),
			format.Amount(row.RemainingBalance))
	}

	s := result.Summary
	_, _ = fmt.Fprintf(w, "\nTotal principal:  %s\n", format.Currency(s.TotalPrincipal))
	_, _ = fmt.Fprintf(w, "Total interest:   %s\n", format.Currency(s.TotalInterest))
	_, _ = fmt.Fprintf(w, "Total commission: %s\n", format.Currency(s.TotalCommission))
	_, _ = fmt.Fprintf(w, "Total paid:       %s\n", format.Currency(s.TotalPaid))
	_, _ = fmt.Fprintf(w, "APR (RRSO):       %s\n", format.Percent(result.AprRrso.RatePct, 2))
	_, _ = fmt.Fprintf(w, "ESP:              %s\n", format.Percent(result.Esp.RatePct, 2))

	if ref := result.ReferenceRate; ref != nil {
		_, _ = fmt.Fprintf(w, "Reference rate:   %s as of %s (%s); max nominal rate %s\n",
			format.Percent(ref.Rate.RatePct, 2), ref.Rate.AsOf, ref.Origin,
			format.Percent(result.MaxNominalRatePct, 2))
	}
	return nil
}

var csvHeader = []string{"index", "dueDate", "principalPart", "interestPart", "commissionPart", "paymentTotal", "remainingBalance"}

// CsvFormat outputs the schedule rows in comma-separated value format.
func CsvFormat(w io.Writer, result *calculator.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range result.Schedule {
		record := []string{
			strconv.Itoa(row.Index),
			row.DueDate.String(),
			row.PrincipalPart.String(),
			row.InterestPart.String(),
			row.CommissionPart.String(),
			row.PaymentTotal.String(),
			row.RemainingBalance.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the full result as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// DueDates writes a list of due dates in the requested format.
func DueDates(w io.Writer, outputFormat string, dates []datetime.Date) error {
	switch outputFormat {
	case constants.OutputFormatJSON:
		return JSONFormat(w, dates)
	case constants.OutputFormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"index", "dueDate"})
		for i, d := range dates {
			_ = cw.Write([]string{strconv.Itoa(i + 1), d.String()})
		}
		cw.Flush()
		return cw.Error()
	case constants.OutputFormatPretty:
		for i, d := range dates {
			_, _ = fmt.Fprintf(w, "%-4d | %s | %s\n", i+1, d, d.Weekday())
		}
		return nil
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// Rate writes a solved rate in the requested format.
func Rate(w io.Writer, outputFormat string, rate apr.RateResult) error {
	switch outputFormat {
	case constants.OutputFormatJSON:
		return JSONFormat(w, rate)
	case constants.OutputFormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"rate", "ratePct"})
		_ = cw.Write([]string{
			strconv.FormatFloat(rate.Rate, 'f', -1, 64),
			strconv.FormatFloat(rate.RatePct, 'f', -1, 64),
		})
		cw.Flush()
		return cw.Error()
	case constants.OutputFormatPretty:
		_, _ = fmt.Fprintf(w, "IRR: %s\n", format.Percent(rate.RatePct, 4))
		return nil
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// ReferenceRate writes a resolved reference rate in the requested format.
func ReferenceRate(w io.Writer, outputFormat string, res refrate.Result, maxNominalRatePct float64) error {
	switch outputFormat {
	case constants.OutputFormatJSON:
		return JSONFormat(w, struct {
			refrate.Result
			MaxNominalRatePct float64 `json:"maxNominalRatePct"`
		}{res, maxNominalRatePct})
	case constants.OutputFormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"ratePct", "asOf", "source", "origin", "maxNominalRatePct"})
		_ = cw.Write([]string{
			strconv.FormatFloat(res.Rate.RatePct, 'f', -1, 64),
			res.Rate.AsOf, res.Rate.Source, string(res.Origin),
			strconv.FormatFloat(maxNominalRatePct, 'f', -1, 64),
		})
		cw.Flush()
		return cw.Error()
	case constants.OutputFormatPretty:
		_, _ = fmt.Fprintf(w, "Reference rate: %s as of %s\n", format.Percent(res.Rate.RatePct, 2), res.Rate.AsOf)
		_, _ = fmt.Fprintf(w, "Source:         %s (%s)\n", res.Rate.Source, res.Origin)
		_, _ = fmt.Fprintf(w, "Legal cap:      %s\n", format.Percent(maxNominalRatePct, 2))
		return nil
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}
