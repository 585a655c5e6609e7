package planning

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

var refNow = time.Date(2026, time.June, 15, 14, 30, 0, 0, time.UTC)

func daysFrom(base time.Time, n int) *time.Time {
	d := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location()).AddDate(0, 0, n)
	return &d
}

type itemOpt func(*domain.PlanningItem)

func withDue(offset int) itemOpt {
	return func(it *domain.PlanningItem) { it.DueDate = daysFrom(refNow, offset) }
}

func withStatus(s domain.Status) itemOpt {
	return func(it *domain.PlanningItem) { it.Status = s }
}

func withPriority(p domain.Priority) itemOpt {
	return func(it *domain.PlanningItem) { it.Priority = p }
}

func withCategory(c string) itemOpt {
	return func(it *domain.PlanningItem) { it.Category = c }
}

func withTitle(t string) itemOpt {
	return func(it *domain.PlanningItem) { it.Title = t }
}

func withDescription(d string) itemOpt {
	return func(it *domain.PlanningItem) { it.Description = d }
}

func withTimeframe(tf string) itemOpt {
	return func(it *domain.PlanningItem) { it.Timeframe = tf }
}

func withCosts(estimated, actual int64) itemOpt {
	return func(it *domain.PlanningItem) {
		e, a := decimal.NewFromInt(estimated), decimal.NewFromInt(actual)
		it.EstimatedCost, it.ActualCost = &e, &a
	}
}

func newItem(id int64, opts ...itemOpt) domain.PlanningItem {
	it := domain.PlanningItem{
		ID:     domain.IntID(id),
		Kind:   domain.KindTask,
		Title:  "Task",
		Status: domain.StatusPending,
	}
	for _, o := range opts {
		o(&it)
	}
	return it
}

func ids(items []domain.PlanningItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID.String()
	}
	return out
}

func intPtr(n int) *int { return &n }
