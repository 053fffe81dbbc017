package catalog

import (
	"go.uber.org/zap"
)

// categoryFields are the field names observed in the wild for the component
// category. The ambiguity is resolved here, once, at the loading boundary;
// everything downstream sees only ComponentDefinition.Category.
var categoryFields = []string{"category", "type", "component_type", "kind"}

// AdaptComponents converts raw catalog records into ComponentDefinitions.
// Records without a usable code or category are dropped with a warning; a
// partially readable catalog is still a usable catalog.
func AdaptComponents(records []map[string]any, logger *zap.Logger) []ComponentDefinition {
	if logger == nil {
		logger = zap.L().Named("catalog.adapter")
	}

	defs := make([]ComponentDefinition, 0, len(records))
	for _, rec := range records {
		code := stringField(rec, "code")
		if code == "" {
			logger.Warn("catalog record without code skipped")
			continue
		}

		rawCategory := firstStringField(rec, categoryFields)
		category, ok := ParseCategory(rawCategory)
		if !ok {
			logger.Warn("catalog record with unknown category skipped",
				zap.String("code", code),
				zap.String("category", rawCategory),
			)
			continue
		}

		displayName := stringField(rec, "display_name")
		if displayName == "" {
			displayName = stringField(rec, "name")
		}
		if displayName == "" {
			displayName = code
		}

		defs = append(defs, ComponentDefinition{
			Code:        code,
			DisplayName: displayName,
			Category:    category,
			Description: stringField(rec, "description"),
		})
	}

	return defs
}

func stringField(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func firstStringField(rec map[string]any, keys []string) string {
	for _, key := range keys {
		if v := stringField(rec, key); v != "" {
			return v
		}
	}
	return ""
}
