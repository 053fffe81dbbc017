package catalog

import "strings"

type Category string

const (
	CategoryEarning           Category = "earning"
	CategoryDeduction         Category = "deduction"
	CategoryStatutory         Category = "statutory"
	CategoryPersonalDeduction Category = "personal_deduction"
)

// ComponentDefinition is one catalog-defined payroll element. Immutable for
// the lifetime of a cache generation; owned by the Cache.
type ComponentDefinition struct {
	Code        string   `json:"code"`
	DisplayName string   `json:"display_name"`
	Category    Category `json:"category"`
	Description string   `json:"description,omitempty"`
}

// ParseCategory normalizes the category vocabulary used by different
// payroll core deployments into the internal enum.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "earning", "earnings", "income":
		return CategoryEarning, true
	case "deduction", "deductions":
		return CategoryDeduction, true
	case "statutory", "statutory_deduction", "social_insurance":
		return CategoryStatutory, true
	case "personal_deduction", "personaldeduction", "personal":
		return CategoryPersonalDeduction, true
	default:
		return "", false
	}
}
