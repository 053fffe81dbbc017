package lineitem

import (
	"time"

	"github.com/shopspring/decimal"
)

type Section string

const (
	SectionEarning   Section = "earning"
	SectionDeduction Section = "deduction"
)

func ParseSection(s string) (Section, bool) {
	switch Section(s) {
	case SectionEarning, SectionDeduction:
		return Section(s), true
	default:
		return "", false
	}
}

// LineItem is one earning or deduction entry on a payroll entry being
// edited. AutoComputedAmount holds the last system-computed value and must
// be set before an override may begin; reverting restores it.
type LineItem struct {
	Code               string
	Description        string
	Section            Section
	Amount             decimal.Decimal
	IsManualOverride   bool
	AutoComputedAmount *decimal.Decimal
	OverriddenAt       *time.Time
	OverriddenBy       string
	OverrideReason     string
}

// ClearOverride reverts the item to its system-computed state. The caller
// must have verified AutoComputedAmount is present.
func (li *LineItem) ClearOverride() {
	if li.AutoComputedAmount != nil {
		li.Amount = *li.AutoComputedAmount
	}
	li.IsManualOverride = false
	li.AutoComputedAmount = nil
	li.OverriddenAt = nil
	li.OverriddenBy = ""
	li.OverrideReason = ""
}
