package editsession

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vmxmy/salary-system-v2-sub006/internal/lineitem"
)

type OpenSessionRequest struct {
	EntryID string `json:"entry_id"`
}

type AddLineItemRequest struct {
	Section string `json:"section" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

// Amount carries no required binding: zero is a legitimate amount.
type SetAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ToggleOverrideRequest struct {
	Enabled *bool  `json:"enabled" binding:"required"`
	Reason  string `json:"reason"`
}

type ItemView struct {
	Code               string           `json:"code"`
	Description        string           `json:"description"`
	Section            string           `json:"section"`
	Amount             decimal.Decimal  `json:"amount"`
	IsManualOverride   bool             `json:"is_manual_override"`
	AutoComputedAmount *decimal.Decimal `json:"auto_computed_amount,omitempty"`
	OverriddenAt       *time.Time       `json:"overridden_at,omitempty"`
	OverriddenBy       string           `json:"overridden_by,omitempty"`
	OverrideReason     string           `json:"override_reason,omitempty"`
	InFlight           bool             `json:"in_flight"`
	SyncError          string           `json:"sync_error,omitempty"`
}

type InvalidItemView struct {
	Code    string          `json:"code"`
	Section string          `json:"section"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
}

type TotalsView struct {
	GrossPay        decimal.Decimal `json:"gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
}

// SessionSnapshot is the full read model of an editing session. Every
// mutation returns one so the caller never needs a follow-up read.
type SessionSnapshot struct {
	SessionID    string            `json:"session_id"`
	EntryID      string            `json:"entry_id,omitempty"`
	Persisted    bool              `json:"persisted"`
	CatalogReady bool              `json:"catalog_ready"`
	Earnings     []ItemView        `json:"earnings"`
	Deductions   []ItemView        `json:"deductions"`
	InvalidItems []InvalidItemView `json:"invalid_items"`
	Totals       TotalsView        `json:"totals"`
}

func (s *Session) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		SessionID:    s.ID,
		EntryID:      s.EntryID,
		Persisted:    s.persisted,
		CatalogReady: s.catalog.Ready(),
		Earnings:     s.itemViewsLocked(lineitem.SectionEarning),
		Deductions:   s.itemViewsLocked(lineitem.SectionDeduction),
		InvalidItems: make([]InvalidItemView, 0, len(s.invalid)),
		Totals: TotalsView{
			GrossPay:        s.totals.GrossPay,
			TotalDeductions: s.totals.TotalDeductions,
			NetPay:          s.totals.NetPay,
		},
	}

	for _, item := range s.invalid {
		snap.InvalidItems = append(snap.InvalidItems, InvalidItemView{
			Code:    item.Item.Code,
			Section: string(item.Item.Section),
			Amount:  item.Item.Amount,
			Reason:  item.Reason,
		})
	}

	return snap
}

func (s *Session) itemViewsLocked(section lineitem.Section) []ItemView {
	views := make([]ItemView, 0, len(s.valid[section]))
	for _, item := range s.valid[section] {
		key := itemKey(section, item.Code)
		views = append(views, ItemView{
			Code:               item.Code,
			Description:        item.Description,
			Section:            string(item.Section),
			Amount:             item.Amount,
			IsManualOverride:   item.IsManualOverride,
			AutoComputedAmount: item.AutoComputedAmount,
			OverriddenAt:       item.OverriddenAt,
			OverriddenBy:       item.OverriddenBy,
			OverrideReason:     item.OverrideReason,
			InFlight:           s.inflight[key],
			SyncError:          s.syncErrors[key],
		})
	}
	return views
}
