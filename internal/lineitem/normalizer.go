package lineitem

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Normalize converts the raw earnings_details / deductions_details payload
// into the canonical line-item list. The payroll core serializes the same
// entity two ways:
//
//   - a map from component code to either a bare amount or an object
//     {amount, is_manual?, manual_at?, manual_by?, manual_reason?, auto_calculated?}
//   - an array of the same objects, each carrying "name" as the code
//
// Both forms must normalize identically; in particular override metadata is
// never dropped on the array path. Canonical order is by component code so
// the result does not depend on the wire representation. Unparseable or
// missing amounts coerce to zero, never an error.
func Normalize(raw json.RawMessage, section Section) []LineItem {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var items []LineItem

	switch trimmed[0] {
	case '{':
		var details map[string]any
		if err := decodeNumericJSON(trimmed, &details); err != nil {
			return nil
		}
		for code, value := range details {
			items = append(items, itemFromValue(code, value, section))
		}
	case '[':
		var details []any
		if err := decodeNumericJSON(trimmed, &details); err != nil {
			return nil
		}
		for _, value := range details {
			obj, ok := value.(map[string]any)
			if !ok {
				continue
			}
			code, _ := obj["name"].(string)
			if code == "" {
				continue
			}
			items = append(items, itemFromObject(code, obj, section))
		}
	default:
		return nil
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return items
}

func itemFromValue(code string, value any, section Section) LineItem {
	if obj, ok := value.(map[string]any); ok {
		return itemFromObject(code, obj, section)
	}
	return LineItem{
		Code:    code,
		Section: section,
		Amount:  coerceAmount(value),
	}
}

func itemFromObject(code string, obj map[string]any, section Section) LineItem {
	item := LineItem{
		Code:    code,
		Section: section,
		Amount:  coerceAmount(obj["amount"]),
	}

	// A missing or falsy is_manual means the item is system-computed; all
	// audit fields are dropped in that case even when present in the source.
	if !truthy(obj["is_manual"]) {
		return item
	}

	item.IsManualOverride = true
	item.OverriddenAt = parseTimestamp(obj["manual_at"])
	item.OverriddenBy, _ = obj["manual_by"].(string)
	item.OverrideReason, _ = obj["manual_reason"].(string)
	if _, present := obj["auto_calculated"]; present {
		auto := coerceAmount(obj["auto_calculated"])
		item.AutoComputedAmount = &auto
	}

	return item
}

// decodeNumericJSON decodes with json.Number so amounts survive as exact
// decimal strings instead of float64.
func decodeNumericJSON(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

func coerceAmount(v any) decimal.Decimal {
	switch value := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(value.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func truthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case json.Number:
		return value.String() != "0"
	case string:
		return value == "true" || value == "1"
	default:
		return false
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
