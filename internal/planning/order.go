package planning

import (
	"sort"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

var bucketRanks = map[BucketKey]int{
	BucketOverdue:       0,
	BucketThisWeek:      1,
	BucketThisMonth:     2,
	BucketNext3Months:   3,
	BucketBeforeWedding: 4,
	BucketNoDueDate:     5,
	BucketCompleted:     6,
}

// BucketRank returns the display position of a bucket (lower = earlier).
// Unknown keys sort after completed.
func BucketRank(k BucketKey) int {
	if r, ok := bucketRanks[k]; ok {
		return r
	}
	return len(bucketRanks)
}

// CompareItems is the canonical within-bucket order:
// 1. Due date: earliest first (nil last)
// 2. Priority: high > medium > low > unset
// 3. ID: numeric before string, then ascending
//
// It returns a negative number when a sorts before b, zero only when both
// share the same ID.
func CompareItems(a, b domain.PlanningItem) int {
	// 1. Due date (calendar date only)
	if (a.DueDate == nil) != (b.DueDate == nil) {
		if a.DueDate != nil {
			return -1
		}
		return 1
	}
	if a.DueDate != nil {
		da, db := civilDate(*a.DueDate), civilDate(*b.DueDate)
		if !da.Equal(db) {
			if da.Before(db) {
				return -1
			}
			return 1
		}
	}

	// 2. Priority (higher weight first)
	if wa, wb := a.Priority.Weight(), b.Priority.Weight(); wa != wb {
		if wa > wb {
			return -1
		}
		return 1
	}

	// 3. ID
	return a.ID.Compare(b.ID)
}

// SortItems returns a sorted copy of items. The input is left untouched.
func SortItems(items []domain.PlanningItem) []domain.PlanningItem {
	out := make([]domain.PlanningItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareItems(out[i], out[j]) < 0
	})
	return out
}
