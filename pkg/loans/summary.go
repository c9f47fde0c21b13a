package loans

import (
	"github.com/iwvelando/credit-calculator/pkg/datetime"
	"github.com/iwvelando/credit-calculator/pkg/money"
)

// Summary aggregates a schedule.
type Summary struct {
	Installments    int           `json:"installments"`
	FirstDueDate    datetime.Date `json:"firstDueDate"`
	LastDueDate     datetime.Date `json:"lastDueDate"`
	TotalPrincipal  money.Cents   `json:"totalPrincipal"`
	TotalInterest   money.Cents   `json:"totalInterest"`
	TotalCommission money.Cents   `json:"totalCommission"`
	TotalPaid       money.Cents   `json:"totalPaid"`
}

// Summarize totals the parts of every row.
func Summarize(rows []ScheduleRow) Summary {
	var s Summary
	s.Installments = len(rows)
	if len(rows) == 0 {
		return s
	}
	s.FirstDueDate = rows[0].DueDate
	s.LastDueDate = rows[len(rows)-1].DueDate
	for _, row := range rows {
		s.TotalPrincipal += row.PrincipalPart
		s.TotalInterest += row.InterestPart
		s.TotalCommission += row.CommissionPart
		s.TotalPaid += row.PaymentTotal
	}
	return s
}
