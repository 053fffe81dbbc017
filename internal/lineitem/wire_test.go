package lineitem_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vmxmy/salary-system-v2-sub006/internal/lineitem"
)

func TestToWireMapPlainItem(t *testing.T) {
	items := []lineitem.LineItem{
		{Code: "BASE_SALARY", Amount: decimal.RequireFromString("5000.00")},
	}

	wire := lineitem.ToWireMap(items)

	detail, ok := wire["BASE_SALARY"]
	assert.True(t, ok)
	assert.False(t, detail.IsManual)
	assert.Empty(t, detail.ManualBy)
	assert.Nil(t, detail.AutoCalculated)

	payload, err := json.Marshal(detail)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"amount": 5000}`, string(payload))
}

func TestToWireMapOverriddenItemCarriesAuditFields(t *testing.T) {
	at := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	auto := decimal.RequireFromString("420.00")
	items := []lineitem.LineItem{
		{
			Code:               "HOUSING_FUND_PERSONAL",
			Amount:             decimal.RequireFromString("350.00"),
			IsManualOverride:   true,
			AutoComputedAmount: &auto,
			OverriddenAt:       &at,
			OverriddenBy:       "hr-admin",
			OverrideReason:     "court order",
		},
	}

	wire := lineitem.ToWireMap(items)

	detail := wire["HOUSING_FUND_PERSONAL"]
	assert.True(t, detail.IsManual)
	assert.Equal(t, "2026-03-15T09:30:00Z", detail.ManualAt)
	assert.Equal(t, "hr-admin", detail.ManualBy)
	assert.Equal(t, "court order", detail.ManualReason)
	if assert.NotNil(t, detail.AutoCalculated) {
		assert.True(t, detail.AutoCalculated.Equal(auto))
	}
}

func TestWireRoundTripPreservesOverrideState(t *testing.T) {
	at := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	auto := decimal.RequireFromString("420")
	original := []lineitem.LineItem{
		{Code: "PENSION_PERSONAL", Section: lineitem.SectionDeduction, Amount: decimal.RequireFromString("480")},
		{
			Code:               "HOUSING_FUND_PERSONAL",
			Section:            lineitem.SectionDeduction,
			Amount:             decimal.RequireFromString("350"),
			IsManualOverride:   true,
			AutoComputedAmount: &auto,
			OverriddenAt:       &at,
			OverriddenBy:       "hr-admin",
			OverrideReason:     "court order",
		},
	}

	payload, err := json.Marshal(lineitem.ToWireMap(original))
	assert.NoError(t, err)

	reparsed := lineitem.Normalize(payload, lineitem.SectionDeduction)

	assert.Len(t, reparsed, 2)
	for i := range original {
		assert.Equal(t, original[i].Code, reparsed[i].Code)
		assert.True(t, original[i].Amount.Equal(reparsed[i].Amount))
		assert.Equal(t, original[i].IsManualOverride, reparsed[i].IsManualOverride)
		assert.Equal(t, original[i].OverriddenBy, reparsed[i].OverriddenBy)
		assert.Equal(t, original[i].OverrideReason, reparsed[i].OverrideReason)
	}

	overridden := reparsed[0]
	assert.Equal(t, "HOUSING_FUND_PERSONAL", overridden.Code)
	if assert.NotNil(t, overridden.AutoComputedAmount) {
		assert.True(t, overridden.AutoComputedAmount.Equal(auto))
	}
	if assert.NotNil(t, overridden.OverriddenAt) {
		assert.True(t, overridden.OverriddenAt.Equal(at))
	}
}
