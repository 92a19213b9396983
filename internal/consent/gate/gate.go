// Package gate implements the consent dispatch gate: the policy check that
// maps an event category to its minimum required consent level. Every entry
// point consults the gate before any enrichment work, so denied events never
// cost anything and never persist data.
package gate

import (
	consent "beacon/internal/consent/models"
	"beacon/internal/events/models"
	dErrors "beacon/pkg/domain-errors"
)

// requiredLevels is the static category-to-minimum-level policy table.
var requiredLevels = map[models.Category]consent.Level{
	models.CategoryPageView:         consent.LevelEssential,
	models.CategoryInteraction:      consent.LevelAnalytics,
	models.CategoryNavigation:       consent.LevelAnalytics,
	models.CategoryPerformance:      consent.LevelAnalytics,
	models.CategoryError:            consent.LevelAnalytics,
	models.CategoryNewsletterSignup: consent.LevelMarketing,
	models.CategoryConversion:       consent.LevelMarketing,
}

// RequiredLevel returns the minimum consent level for a category.
func RequiredLevel(category models.Category) (consent.Level, bool) {
	level, ok := requiredLevels[category]
	return level, ok
}

// Allow decides whether an event of the given category may be recorded under
// the current consent level. Unknown categories are denied.
func Allow(category models.Category, current consent.Level) error {
	required, ok := requiredLevels[category]
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "unknown event category: "+string(category))
	}
	if !consent.HasLevel(current, required) {
		return dErrors.New(dErrors.CodeMissingConsent,
			"category "+string(category)+" requires consent level "+string(required))
	}
	return nil
}
