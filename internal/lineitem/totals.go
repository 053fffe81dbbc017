package lineitem

import "github.com/shopspring/decimal"

type Totals struct {
	GrossPay        decimal.Decimal `json:"gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
}

// ComputeTotals derives the aggregate totals from the current line-item
// lists. Pure and decimal-exact; empty lists yield zero totals. Non-numeric
// input never reaches this point because normalization already coerced it
// to zero.
func ComputeTotals(earnings, deductions []LineItem) Totals {
	gross := decimal.Zero
	for _, item := range earnings {
		gross = gross.Add(item.Amount)
	}

	totalDeductions := decimal.Zero
	for _, item := range deductions {
		totalDeductions = totalDeductions.Add(item.Amount)
	}

	return Totals{
		GrossPay:        gross,
		TotalDeductions: totalDeductions,
		NetPay:          gross.Sub(totalDeductions),
	}
}
