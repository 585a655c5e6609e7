package planning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// UnscheduledLabel groups items whose timeframe label is blank.
const UnscheduledLabel = "Unscheduled"

// maxHintDistance bounds the edit distance for "did you mean" hints.
const maxHintDistance = 3

// TimeframeTable maps named timeline phases ("12+ months before",
// "Wedding Day") to their display order. Lookups ignore case and collapse
// whitespace.
type TimeframeTable struct {
	labels []string
	ranks  map[string]int
}

// NewTimeframeTable builds a table from labels in display order. Blank and
// repeated labels are skipped.
func NewTimeframeTable(labels []string) *TimeframeTable {
	t := &TimeframeTable{ranks: make(map[string]int, len(labels))}
	for _, l := range labels {
		key := normalizeLabel(l)
		if key == "" {
			continue
		}
		if _, dup := t.ranks[key]; dup {
			continue
		}
		t.ranks[key] = len(t.labels)
		t.labels = append(t.labels, strings.TrimSpace(l))
	}
	return t
}

// Labels returns the known labels in order.
func (t *TimeframeTable) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Rank returns the position of label. Unknown labels report ok=false and
// rank after every known label.
func (t *TimeframeTable) Rank(label string) (rank int, ok bool) {
	if r, found := t.ranks[normalizeLabel(label)]; found {
		return r, true
	}
	return len(t.labels), false
}

// canonical returns the table's spelling of a known label.
func (t *TimeframeTable) canonical(label string) (string, bool) {
	r, ok := t.Rank(label)
	if !ok {
		return "", false
	}
	return t.labels[r], true
}

// Suggest returns the closest known label within a small edit distance.
func (t *TimeframeTable) Suggest(label string) (string, bool) {
	key := normalizeLabel(label)
	best, bestDist := "", maxHintDistance+1
	for _, known := range t.labels {
		d := levenshtein.ComputeDistance(key, normalizeLabel(known))
		if d < bestDist {
			best, bestDist = known, d
		}
	}
	return best, best != ""
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// TimeframeGroup is one named phase of a TimeframeView.
type TimeframeGroup struct {
	Label string                `json:"label"`
	Known bool                  `json:"known"`
	Items []domain.PlanningItem `json:"items"`
	Stats Stats                 `json:"stats"`
}

// TimeframeView groups items by their timeframe label instead of due date.
type TimeframeView struct {
	ReferenceDate string           `json:"referenceDate"`
	Criteria      Criteria         `json:"criteria"`
	Groups        []TimeframeGroup `json:"groups"`
	Overall       Stats            `json:"overallStats"`
	Warnings      []Warning        `json:"warnings"`
}

// BuildTimeframeView groups filtered items by named timeframe. Known labels
// follow the table order, unknown labels follow in lexical order, and blank
// labels are collected under UnscheduledLabel at the end. Unknown labels
// produce a warning, with a hint when a known label is close.
func BuildTimeframeView(items []domain.PlanningItem, c Criteria, now time.Time, table *TimeframeTable) (*TimeframeView, error) {
	if now.IsZero() {
		return nil, &domain.ErrContractViolation{Argument: "now", Reason: "reference time is required"}
	}
	if table == nil {
		table = NewTimeframeTable(nil)
	}

	filtered := NewPredicate(c, now).Filter(items)

	type slot struct {
		group   TimeframeGroup
		rank    int
		unsched bool
	}
	slots := make(map[string]*slot)
	for _, it := range filtered {
		raw := strings.TrimSpace(it.Timeframe)
		var key string
		s := &slot{}
		switch label, known := table.canonical(raw); {
		case raw == "":
			key = ""
			s.group.Label, s.unsched = UnscheduledLabel, true
		case known:
			key = normalizeLabel(label)
			s.group.Label, s.group.Known = label, true
			s.rank, _ = table.Rank(label)
		default:
			key = normalizeLabel(raw)
			s.group.Label = raw
			s.rank = len(table.labels)
		}
		if existing, ok := slots[key]; ok {
			s = existing
		} else {
			slots[key] = s
		}
		s.group.Items = append(s.group.Items, it)
	}

	ordered := make([]*slot, 0, len(slots))
	for _, s := range slots {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.unsched != b.unsched {
			return b.unsched
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return normalizeLabel(a.group.Label) < normalizeLabel(b.group.Label)
	})

	groups := make([]TimeframeGroup, 0, len(ordered))
	for _, s := range ordered {
		g := s.group
		g.Items = SortItems(g.Items)
		g.Stats = Summarize(g.Items, now)
		groups = append(groups, g)
	}

	return &TimeframeView{
		ReferenceDate: now.Format(domain.DateLayout),
		Criteria:      c,
		Groups:        groups,
		Overall:       Summarize(filtered, now),
		Warnings:      append(Inspect(items), InspectTimeframes(items, table)...),
	}, nil
}

// InspectTimeframes warns about non-blank timeframe labels the table does
// not know.
func InspectTimeframes(items []domain.PlanningItem, table *TimeframeTable) []Warning {
	var warnings []Warning
	for i, it := range items {
		raw := strings.TrimSpace(it.Timeframe)
		if raw == "" {
			continue
		}
		if _, ok := table.Rank(raw); ok {
			continue
		}
		msg := fmt.Sprintf("unknown timeframe %q sorted last", raw)
		if hint, ok := table.Suggest(raw); ok {
			msg += fmt.Sprintf("; did you mean %q?", hint)
		}
		warnings = append(warnings, Warning{ItemID: it.ID, Index: i, Field: "timeframe", Message: msg})
	}
	return warnings
}
