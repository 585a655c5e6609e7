// Package domain defines the core planning entities for the wedding planner BFA.
// These models are independent of external services and represent the
// canonical data structures used throughout the service and the engine.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Item kinds
// ============================================================

// ItemKind identifies which planning page a record belongs to.
type ItemKind string

const (
	KindTask   ItemKind = "task"
	KindBudget ItemKind = "budget"
	KindVendor ItemKind = "vendor"
)

// ParseItemKind maps a loose kind string ("tasks", "Budget") to an ItemKind.
func ParseItemKind(s string) (ItemKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "task", "tasks":
		return KindTask, true
	case "budget", "budgets", "budget_item", "budget_items":
		return KindBudget, true
	case "vendor", "vendors":
		return KindVendor, true
	}
	return "", false
}

// AllKinds lists every kind in display order.
var AllKinds = []ItemKind{KindTask, KindBudget, KindVendor}

// ============================================================
// Status
// ============================================================

// Status is an open string set. Known values are listed below; anything else
// is kept verbatim and treated as not done.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"

	StatusContacted Status = "contacted"
	StatusQuoted    Status = "quoted"
	StatusBooked    Status = "booked"
	StatusRejected  Status = "rejected"

	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

var knownStatuses = map[Status]bool{
	StatusPending: true, StatusInProgress: true, StatusCompleted: true,
	StatusContacted: true, StatusQuoted: true, StatusBooked: true, StatusRejected: true,
	StatusPaid: true, StatusUnpaid: true,
}

// NormalizeStatus lower-cases s and folds spaces and hyphens into underscores,
// so "In Progress" and "in-progress" both become in_progress.
func NormalizeStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return Status(s)
}

// Known reports whether s is one of the statuses the planner recognizes.
func (s Status) Known() bool { return knownStatuses[s] }

// IsDone reports whether the status is terminal-positive: a completed task,
// a booked vendor or a paid budget line.
func (s Status) IsDone() bool {
	return s == StatusCompleted || s == StatusBooked || s == StatusPaid
}

// IsPending reports whether nothing has happened on the item yet.
func (s Status) IsPending() bool {
	return s == StatusPending || s == StatusUnpaid
}

// ============================================================
// Priority
// ============================================================

// Priority is low, medium, high or unset ("").
type Priority string

const (
	PriorityUnset  Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes p. The second return is false for unknown values,
// which callers treat as unset.
func ParsePriority(p string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "":
		return PriorityUnset, true
	case "low":
		return PriorityLow, true
	case "medium", "med":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	}
	return PriorityUnset, false
}

// Weight orders priorities: high=3, medium=2, low=1, unset=0.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ============================================================
// Item IDs
// ============================================================

// ItemID is an opaque record identifier assigned by the persistence layer.
// The wire form may be an integer or a string; numeric IDs round-trip as numbers.
type ItemID struct {
	value   string
	numeric bool
}

// IntID builds a numeric ID.
func IntID(n int64) ItemID {
	return ItemID{value: strconv.FormatInt(n, 10), numeric: true}
}

// StringID builds a string ID.
func StringID(s string) ItemID {
	return ItemID{value: s}
}

func (id ItemID) String() string { return id.value }

// IsZero reports whether no ID was supplied.
func (id ItemID) IsZero() bool { return id.value == "" }

// IsNumeric reports whether the ID came from an integer.
func (id ItemID) IsNumeric() bool { return id.numeric }

// Compare orders IDs: numeric before string, numeric by value, strings lexically.
func (id ItemID) Compare(other ItemID) int {
	if id.numeric != other.numeric {
		if id.numeric {
			return -1
		}
		return 1
	}
	if id.numeric {
		a, b := id.value, other.value
		negA, negB := strings.HasPrefix(a, "-"), strings.HasPrefix(b, "-")
		if negA != negB {
			if negA {
				return -1
			}
			return 1
		}
		c := compareDigits(strings.TrimPrefix(a, "-"), strings.TrimPrefix(b, "-"))
		if negA {
			return -c
		}
		return c
	}
	return strings.Compare(id.value, other.value)
}

// compareDigits compares two unsigned decimal strings without parsing them,
// so IDs wider than int64 still order correctly.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// ============================================================
// PlanningItem
// ============================================================

// DataIssue records a field that had to be coerced while decoding a record.
type DataIssue struct {
	Field   string
	Message string
}

// PlanningItem generalizes a task, a budget line item and a vendor record.
type PlanningItem struct {
	ID          ItemID
	Kind        ItemKind
	Title       string
	Description string
	Notes       string
	Category    string
	Priority    Priority
	Status      Status
	Timeframe   string
	DueDate     *time.Time

	Amount        *decimal.Decimal
	EstimatedCost *decimal.Decimal
	ActualCost    *decimal.Decimal

	CreatedAt   *time.Time
	CompletedAt *time.Time

	// Issues holds anomalies found while decoding; never serialized.
	Issues []DataIssue
}

// HasCategory reports whether a category label is set.
func (it PlanningItem) HasCategory() bool {
	return strings.TrimSpace(it.Category) != ""
}

// Estimated returns the planned cost: EstimatedCost, else Amount, else zero.
// Negative values count as zero.
func (it PlanningItem) Estimated() decimal.Decimal {
	switch {
	case it.EstimatedCost != nil:
		return nonNegative(*it.EstimatedCost)
	case it.Amount != nil:
		return nonNegative(*it.Amount)
	}
	return decimal.Zero
}

// Actual returns the spent cost, or zero when unknown or negative.
func (it PlanningItem) Actual() decimal.Decimal {
	if it.ActualCost == nil {
		return decimal.Zero
	}
	return nonNegative(*it.ActualCost)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// UncategorizedLabel groups items without a category in aggregates.
const UncategorizedLabel = "uncategorized"
