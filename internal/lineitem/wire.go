package lineitem

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// WireDetail is the value shape of the map-of-code serialization the save
// endpoint accepts. Override fields are present only for overridden items.
type WireDetail struct {
	Amount         decimal.Decimal  `json:"amount"`
	IsManual       bool             `json:"is_manual,omitempty"`
	ManualAt       string           `json:"manual_at,omitempty"`
	ManualBy       string           `json:"manual_by,omitempty"`
	ManualReason   string           `json:"manual_reason,omitempty"`
	AutoCalculated *decimal.Decimal `json:"auto_calculated,omitempty"`
}

// ToWireMap re-serializes line items to the map-of-code form for the entry
// save payload. Callers pass only the valid (catalog-checked) set; invalid
// items never reach the backend.
func ToWireMap(items []LineItem) map[string]WireDetail {
	details := make(map[string]WireDetail, len(items))
	for _, item := range items {
		detail := WireDetail{Amount: item.Amount}
		if item.IsManualOverride {
			detail.IsManual = true
			if item.OverriddenAt != nil {
				detail.ManualAt = item.OverriddenAt.UTC().Format(time.RFC3339)
			}
			detail.ManualBy = item.OverriddenBy
			detail.ManualReason = item.OverrideReason
			detail.AutoCalculated = item.AutoComputedAmount
		}
		details[item.Code] = detail
	}
	return details
}
