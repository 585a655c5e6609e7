package planning

import (
	"time"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// BucketKey names a temporal group on the timeline.
type BucketKey string

const (
	BucketOverdue       BucketKey = "overdue"
	BucketThisWeek      BucketKey = "this_week"
	BucketThisMonth     BucketKey = "this_month"
	BucketNext3Months   BucketKey = "next_3_months"
	BucketBeforeWedding BucketKey = "before_wedding"
	BucketNoDueDate     BucketKey = "no_due_date"
	BucketCompleted     BucketKey = "completed"
)

// Horizon thresholds in whole days from the reference date.
const (
	weekHorizon    = 7
	monthHorizon   = 30
	quarterHorizon = 90
)

// Buckets lists every key in display order.
var Buckets = []BucketKey{
	BucketOverdue,
	BucketThisWeek,
	BucketThisMonth,
	BucketNext3Months,
	BucketBeforeWedding,
	BucketNoDueDate,
	BucketCompleted,
}

var bucketLabels = map[BucketKey]string{
	BucketOverdue:       "Overdue",
	BucketThisWeek:      "This Week",
	BucketThisMonth:     "This Month",
	BucketNext3Months:   "Next 3 Months",
	BucketBeforeWedding: "Before Wedding",
	BucketNoDueDate:     "No Due Date",
	BucketCompleted:     "Completed",
}

// Label returns the display heading for the bucket.
func (k BucketKey) Label() string {
	if l, ok := bucketLabels[k]; ok {
		return l
	}
	return string(k)
}

// BucketOf assigns an item to exactly one bucket relative to now.
//
// Undated items always land in no_due_date, done or not. Done items with a
// due date go to completed and are never overdue. The "this week" window is
// rolling: due today through seven days out.
func BucketOf(item domain.PlanningItem, now time.Time) BucketKey {
	if item.DueDate == nil {
		return BucketNoDueDate
	}
	if item.Status.IsDone() {
		return BucketCompleted
	}

	diff := DaysUntil(*item.DueDate, now)
	switch {
	case diff < 0:
		return BucketOverdue
	case diff <= weekHorizon:
		return BucketThisWeek
	case diff <= monthHorizon:
		return BucketThisMonth
	case diff <= quarterHorizon:
		return BucketNext3Months
	default:
		return BucketBeforeWedding
	}
}

// DaysUntil returns the number of calendar days from now's date to due's date.
// Each side is read in its own location and the time of day is discarded, so
// DST transitions never shift the result.
func DaysUntil(due, now time.Time) int {
	return int(civilDate(due).Sub(civilDate(now)).Hours() / 24)
}

// civilDate projects t's calendar date onto UTC midnight.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsOverdue reports whether an open item is past its due date.
func IsOverdue(item domain.PlanningItem, now time.Time) bool {
	return BucketOf(item, now) == BucketOverdue
}
