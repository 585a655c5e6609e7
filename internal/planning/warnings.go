package planning

import (
	"fmt"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// Warning is a non-fatal data-quality finding about one item.
type Warning struct {
	ItemID  domain.ItemID `json:"itemId"`
	Index   int           `json:"index"`
	Field   string        `json:"field"`
	Message string        `json:"message"`
}

// Inspect collects decoding anomalies and duplicate IDs. Index is the item's
// position in the input slice. IDs are compared by their text, so "7" and 7
// name the same record.
func Inspect(items []domain.PlanningItem) []Warning {
	warnings := make([]Warning, 0)
	seen := make(map[string]int, len(items))

	for i, it := range items {
		for _, issue := range it.Issues {
			warnings = append(warnings, Warning{
				ItemID:  it.ID,
				Index:   i,
				Field:   issue.Field,
				Message: issue.Message,
			})
		}

		if it.ID.IsZero() {
			continue
		}
		key := it.ID.String()
		if first, dup := seen[key]; dup {
			warnings = append(warnings, Warning{
				ItemID:  it.ID,
				Index:   i,
				Field:   "id",
				Message: fmt.Sprintf("duplicate id %s (first seen at index %d)", it.ID, first),
			})
			continue
		}
		seen[key] = i
	}
	return warnings
}
