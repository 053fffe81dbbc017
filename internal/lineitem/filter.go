package lineitem

import (
	"github.com/vmxmy/salary-system-v2-sub006/internal/catalog"
)

// InvalidItem is a line item excluded from the editable set, with the
// diagnostic surfaced to the caller.
type InvalidItem struct {
	Item   LineItem
	Reason string
}

// Partition cross-references normalized items against the component
// catalog. While the catalog is still loading every item passes through
// unfiltered (optimistic display); the session re-runs the partition once
// the catalog becomes ready. Invalid items are excluded from editing and
// from the persisted payload but never block the valid ones.
func Partition(items []LineItem, cache *catalog.Cache, section Section) ([]LineItem, []InvalidItem) {
	if cache == nil || !cache.Ready() {
		return items, nil
	}

	var valid []LineItem
	var invalid []InvalidItem

	for _, item := range items {
		def, found := cache.Lookup(item.Code)
		if !found {
			invalid = append(invalid, InvalidItem{Item: item, Reason: "component code not found in catalog"})
			continue
		}
		if !CategoryAllowedInSection(def.Category, section) {
			invalid = append(invalid, InvalidItem{Item: item, Reason: "component category does not match section"})
			continue
		}

		item.Description = def.DisplayName
		valid = append(valid, item)
	}

	return valid, invalid
}

// CategoryAllowedInSection encodes the section compatibility rule: earnings
// carry only earning components, deductions carry deduction, statutory and
// personal-deduction components.
func CategoryAllowedInSection(category catalog.Category, section Section) bool {
	switch section {
	case SectionEarning:
		return category == catalog.CategoryEarning
	case SectionDeduction:
		return category == catalog.CategoryDeduction ||
			category == catalog.CategoryStatutory ||
			category == catalog.CategoryPersonalDeduction
	default:
		return false
	}
}
