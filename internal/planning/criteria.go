package planning

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// Criteria is the filter state a view is built from.
type Criteria = domain.Criteria

// FilterAll is the sentinel that disables a single field filter.
const FilterAll = "all"

// Predicate is a parsed Criteria. It is immutable once built and safe to
// share between goroutines.
type Predicate struct {
	status    domain.Status
	category  string
	priority  domain.Priority
	search    string
	dueWithin int

	hasStatus, hasCategory, hasPriority, hasDueWithin bool

	now time.Time
}

// NewPredicate parses criteria once. Values the planner does not recognize
// (unknown status or priority, negative day windows) disable that field's
// filter instead of failing. now is only consulted for DueWithinDays.
func NewPredicate(c Criteria, now time.Time) *Predicate {
	p := &Predicate{now: now}

	if s := strings.TrimSpace(c.Status); s != "" && !strings.EqualFold(s, FilterAll) {
		st := domain.NormalizeStatus(s)
		if st.Known() {
			p.status, p.hasStatus = st, true
		}
	}

	if s := strings.TrimSpace(c.Category); s != "" && !strings.EqualFold(s, FilterAll) {
		p.category, p.hasCategory = fold(s), true
	}

	if s := strings.TrimSpace(c.Priority); s != "" && !strings.EqualFold(s, FilterAll) {
		if pr, ok := domain.ParsePriority(s); ok && pr != domain.PriorityUnset {
			p.priority, p.hasPriority = pr, true
		}
	}

	p.search = fold(strings.TrimSpace(c.SearchText))

	if c.DueWithinDays != nil && *c.DueWithinDays >= 0 {
		p.dueWithin, p.hasDueWithin = *c.DueWithinDays, true
	}

	return p
}

// Active reports whether any field narrows the result.
func (p *Predicate) Active() bool {
	return p.hasStatus || p.hasCategory || p.hasPriority || p.hasDueWithin || p.search != ""
}

// Match reports whether item satisfies every active filter.
func (p *Predicate) Match(item domain.PlanningItem) bool {
	if p.hasStatus && item.Status != p.status {
		return false
	}
	if p.hasCategory && fold(strings.TrimSpace(item.Category)) != p.category {
		return false
	}
	if p.hasPriority && item.Priority != p.priority {
		return false
	}
	if p.hasDueWithin {
		if item.DueDate == nil || DaysUntil(*item.DueDate, p.now) > p.dueWithin {
			return false
		}
	}
	if p.search != "" && !p.matchesText(item) {
		return false
	}
	return true
}

// Filter returns the matching items in input order.
func (p *Predicate) Filter(items []domain.PlanningItem) []domain.PlanningItem {
	out := make([]domain.PlanningItem, 0, len(items))
	for _, it := range items {
		if p.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

func (p *Predicate) matchesText(item domain.PlanningItem) bool {
	for _, field := range []string{item.Title, item.Description, item.Notes} {
		if field != "" && strings.Contains(fold(field), p.search) {
			return true
		}
	}
	return false
}

// folder is stateless and safe for concurrent use.
var folder = cases.Fold()

// fold applies Unicode case folding.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return folder.String(s)
}
