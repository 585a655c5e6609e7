package planning

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// Spend classification for a category.
const (
	SpendPending = "pending"
	SpendOver    = "over"
	SpendUnder   = "under"
)

const unknownStatusKey = "unknown"

// CategoryStats aggregates one category.
type CategoryStats struct {
	Count        int             `json:"count"`
	EstimatedSum decimal.Decimal `json:"estimatedSum"`
	ActualSum    decimal.Decimal `json:"actualSum"`
	Status       string          `json:"status"`
	// PercentOfTotal is the category's share of TotalEstimated, one decimal.
	// Nil when the category has no estimated spend.
	PercentOfTotal *float64 `json:"percentOfTotal,omitempty"`
}

// Stats summarizes a collection of planning items.
type Stats struct {
	Total                 int                      `json:"total"`
	Completed             int                      `json:"completed"`
	Pending               int                      `json:"pending"`
	InProgress            int                      `json:"inProgress"`
	Overdue               int                      `json:"overdue"`
	ByStatus              map[string]int           `json:"byStatus"`
	ByCategory            map[string]CategoryStats `json:"byCategory"`
	TotalEstimated        decimal.Decimal          `json:"totalEstimated"`
	TotalActual           decimal.Decimal          `json:"totalActual"`
	Remaining             decimal.Decimal          `json:"remaining"`
	CompletionRatePercent int                      `json:"completionRatePercent"`
}

// Summarize computes Stats over items. now is needed for the overdue count.
// An empty collection yields zero counts and empty (non-nil) maps.
func Summarize(items []domain.PlanningItem, now time.Time) Stats {
	s := Stats{
		ByStatus:       make(map[string]int),
		ByCategory:     make(map[string]CategoryStats),
		TotalEstimated: decimal.Zero,
		TotalActual:    decimal.Zero,
		Remaining:      decimal.Zero,
	}

	for _, it := range items {
		s.Total++

		switch {
		case it.Status.IsDone():
			s.Completed++
		case it.Status.IsPending():
			s.Pending++
		case it.Status == domain.StatusInProgress:
			s.InProgress++
		}
		if IsOverdue(it, now) {
			s.Overdue++
		}

		statusKey := string(it.Status)
		if statusKey == "" {
			statusKey = unknownStatusKey
		}
		s.ByStatus[statusKey]++

		est, act := it.Estimated(), it.Actual()
		s.TotalEstimated = s.TotalEstimated.Add(est)
		s.TotalActual = s.TotalActual.Add(act)

		key := categoryKey(it)
		cs := s.ByCategory[key]
		cs.Count++
		cs.EstimatedSum = cs.EstimatedSum.Add(est)
		cs.ActualSum = cs.ActualSum.Add(act)
		s.ByCategory[key] = cs
	}

	for key, cs := range s.ByCategory {
		cs.Status = classifySpend(cs.EstimatedSum, cs.ActualSum)
		if cs.EstimatedSum.IsPositive() && s.TotalEstimated.IsPositive() {
			pct, _ := cs.EstimatedSum.Mul(decimal.NewFromInt(100)).
				Div(s.TotalEstimated).
				Round(1).
				Float64()
			cs.PercentOfTotal = &pct
		}
		s.ByCategory[key] = cs
	}

	s.Remaining = s.TotalEstimated.Sub(s.TotalActual)
	s.CompletionRatePercent = completionRate(s.Completed, s.Total)
	return s
}

// classifySpend: pending when nothing is spent, over when actual exceeds the
// estimate, under otherwise.
func classifySpend(estimated, actual decimal.Decimal) string {
	switch {
	case actual.IsZero():
		return SpendPending
	case actual.GreaterThan(estimated):
		return SpendOver
	default:
		return SpendUnder
	}
}

// completionRate is round(100*completed/total) with halves rounded up, 0 for
// an empty collection.
func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}

func categoryKey(it domain.PlanningItem) string {
	c := strings.TrimSpace(it.Category)
	if c == "" {
		return domain.UncategorizedLabel
	}
	return c
}
