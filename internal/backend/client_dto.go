package backend

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/vmxmy/salary-system-v2-sub006/internal/lineitem"
)

// RawComponent is one catalog record exactly as the payroll core serves it.
// The category field name varies between deployments, so the record stays
// untyped until the catalog adapter resolves it.
type RawComponent = map[string]any

// Entry is a payroll entry as served by the payroll core. The earnings and
// deductions details are kept raw because the core serializes them in two
// different shapes (map-of-code and array-of-objects).
type Entry struct {
	ID                string          `json:"id"`
	EmployeeID        string          `json:"employee_id"`
	Period            string          `json:"period"`
	Status            string          `json:"status"`
	EarningsDetails   json.RawMessage `json:"earnings_details"`
	DeductionsDetails json.RawMessage `json:"deductions_details"`
	GrossPay          decimal.Decimal `json:"gross_pay"`
	TotalDeductions   decimal.Decimal `json:"total_deductions"`
	NetPay            decimal.Decimal `json:"net_pay"`
}

type AdjustmentRequest struct {
	ComponentCode string          `json:"component_code"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// AdjustmentResult is the authoritative override state returned by the
// manual-adjustment endpoint. Server clock and author win over local guesses.
type AdjustmentResult struct {
	IsManual       bool            `json:"is_manual"`
	ManualAt       string          `json:"manual_at"`
	ManualBy       string          `json:"manual_by"`
	ManualReason   string          `json:"manual_reason"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	AdjustedAmount decimal.Decimal `json:"adjusted_amount"`
}

// SaveEntryRequest re-serializes the editable line-item set to the
// map-of-code wire form together with the recomputed totals.
type SaveEntryRequest struct {
	EarningsDetails   map[string]lineitem.WireDetail `json:"earnings_details"`
	DeductionsDetails map[string]lineitem.WireDetail `json:"deductions_details"`
	GrossPay          decimal.Decimal                `json:"gross_pay"`
	TotalDeductions   decimal.Decimal                `json:"total_deductions"`
	NetPay            decimal.Decimal                `json:"net_pay"`
}
