package planning

import (
	"time"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// Options tune BuildView output without changing its semantics.
type Options struct {
	ExcludeCompleted bool `json:"excludeCompleted"`
	PerBucketStats   bool `json:"perBucketStats"`
}

// Bucket is one non-empty temporal group of a View.
type Bucket struct {
	Key   BucketKey             `json:"key"`
	Label string                `json:"label"`
	Items []domain.PlanningItem `json:"items"`
	Stats *Stats                `json:"stats,omitempty"`
}

// View is the assembled timeline returned to the presentation layer.
type View struct {
	ReferenceDate string    `json:"referenceDate"`
	Criteria      Criteria  `json:"criteria"`
	Buckets       []Bucket  `json:"buckets"`
	Overall       Stats     `json:"overallStats"`
	Warnings      []Warning `json:"warnings"`
}

// BuildView filters, buckets and orders items relative to now.
//
// Malformed records never fail the call: their anomalies are reported in
// Warnings. The only error is a zero now, which is a caller bug and is
// returned as *domain.ErrContractViolation. A nil items slice is treated as
// an empty collection.
func BuildView(items []domain.PlanningItem, c Criteria, now time.Time, opts Options) (*View, error) {
	if now.IsZero() {
		return nil, &domain.ErrContractViolation{Argument: "now", Reason: "reference time is required"}
	}

	pred := NewPredicate(c, now)
	filtered := pred.Filter(items)

	groups := make(map[BucketKey][]domain.PlanningItem)
	for _, it := range filtered {
		k := BucketOf(it, now)
		groups[k] = append(groups[k], it)
	}

	buckets := make([]Bucket, 0, len(groups))
	for _, key := range Buckets {
		members := groups[key]
		if len(members) == 0 {
			continue
		}
		if key == BucketCompleted && opts.ExcludeCompleted {
			continue
		}
		b := Bucket{Key: key, Label: key.Label(), Items: SortItems(members)}
		if opts.PerBucketStats {
			st := Summarize(b.Items, now)
			b.Stats = &st
		}
		buckets = append(buckets, b)
	}

	return &View{
		ReferenceDate: now.Format(domain.DateLayout),
		Criteria:      c,
		Buckets:       buckets,
		Overall:       Summarize(filtered, now),
		Warnings:      Inspect(items),
	}, nil
}

// Find returns the bucket with the given key, or nil when it was dropped.
func (v *View) Find(key BucketKey) *Bucket {
	for i := range v.Buckets {
		if v.Buckets[i].Key == key {
			return &v.Buckets[i]
		}
	}
	return nil
}
