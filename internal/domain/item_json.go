package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Lenient JSON decoding for planning records
// ============================================================
//
// Records arrive from the frontend (camelCase) and from PostgREST (snake_case).
// Decoding never fails for a JSON object: fields that cannot be read are
// coerced to a safe default and an entry is appended to Issues.

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	DateLayout,
}

type wireItem struct {
	ID          json.RawMessage `json:"id"`
	Kind        json.RawMessage `json:"kind"`
	Title       json.RawMessage `json:"title"`
	Name        json.RawMessage `json:"name"`
	Item        json.RawMessage `json:"item"`
	Description json.RawMessage `json:"description"`
	Notes       json.RawMessage `json:"notes"`
	Category    json.RawMessage `json:"category"`
	Priority    json.RawMessage `json:"priority"`
	Status      json.RawMessage `json:"status"`
	Timeframe   json.RawMessage `json:"timeframe"`

	IsPaid      json.RawMessage `json:"isPaid"`
	IsPaidSnake json.RawMessage `json:"is_paid"`

	DueDate      json.RawMessage `json:"dueDate"`
	DueDateSnake json.RawMessage `json:"due_date"`

	Amount             json.RawMessage `json:"amount"`
	EstimatedCost      json.RawMessage `json:"estimatedCost"`
	EstimatedCostSnake json.RawMessage `json:"estimated_cost"`
	ActualCost         json.RawMessage `json:"actualCost"`
	ActualCostSnake    json.RawMessage `json:"actual_cost"`

	CreatedAt        json.RawMessage `json:"createdAt"`
	CreatedAtSnake   json.RawMessage `json:"created_at"`
	CompletedAt      json.RawMessage `json:"completedAt"`
	CompletedAtSnake json.RawMessage `json:"completed_at"`
}

// UnmarshalJSON decodes a record leniently. It only errors when data is not a
// JSON object at all.
func (it *PlanningItem) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &ErrContractViolation{Argument: "item", Reason: "expected a JSON object"}
	}

	var w wireItem
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return &ErrContractViolation{Argument: "item", Reason: err.Error()}
	}

	out := PlanningItem{}
	issue := func(field, format string, args ...any) {
		out.Issues = append(out.Issues, DataIssue{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	id, ok := parseID(w.ID)
	if !ok {
		issue("id", "missing or unreadable id")
	}
	out.ID = id

	if s, _ := rawString(w.Kind); s != "" {
		if k, ok := ParseItemKind(s); ok {
			out.Kind = k
		} else {
			issue("kind", "unknown kind %q", s)
		}
	}

	for _, raw := range []json.RawMessage{w.Title, w.Name, w.Item} {
		if s, _ := rawString(raw); strings.TrimSpace(s) != "" {
			out.Title = s
			break
		}
	}
	if out.Title == "" {
		issue("title", "missing title")
	}

	out.Description, _ = rawString(w.Description)
	out.Notes, _ = rawString(w.Notes)
	out.Timeframe, _ = rawString(w.Timeframe)

	if s, ok := rawString(w.Category); ok {
		out.Category = strings.TrimSpace(s)
	} else {
		issue("category", "category is not a string")
	}

	if s, _ := rawString(w.Priority); s != "" {
		p, ok := ParsePriority(s)
		if !ok {
			issue("priority", "unknown priority %q treated as unset", s)
		}
		out.Priority = p
	}

	if s, _ := rawString(w.Status); s != "" {
		out.Status = NormalizeStatus(s)
		if !out.Status.Known() {
			issue("status", "unrecognized status %q", s)
		}
	}
	if raw := firstPresent(w.IsPaid, w.IsPaidSnake); raw != nil {
		paid, ok := parseBool(raw)
		if !ok {
			issue("isPaid", "unreadable isPaid value %s", string(raw))
		}
		if paid {
			out.Status = StatusPaid
		} else {
			out.Status = StatusUnpaid
		}
	}

	if raw := firstPresent(w.DueDate, w.DueDateSnake); raw != nil {
		d, ok := parseTime(raw)
		if !ok {
			issue("dueDate", "unparseable due date %s", string(raw))
		}
		out.DueDate = d
	}

	money := func(field string, raws ...json.RawMessage) *decimal.Decimal {
		raw := firstPresent(raws...)
		if raw == nil {
			return nil
		}
		d, msg := parseMoney(raw)
		if msg != "" {
			issue(field, "%s", msg)
		}
		return d
	}
	out.Amount = money("amount", w.Amount)
	out.EstimatedCost = money("estimatedCost", w.EstimatedCost, w.EstimatedCostSnake)
	out.ActualCost = money("actualCost", w.ActualCost, w.ActualCostSnake)

	if raw := firstPresent(w.CreatedAt, w.CreatedAtSnake); raw != nil {
		t, ok := parseTime(raw)
		if !ok {
			issue("createdAt", "unparseable timestamp %s", string(raw))
		}
		out.CreatedAt = t
	}
	if raw := firstPresent(w.CompletedAt, w.CompletedAtSnake); raw != nil {
		t, ok := parseTime(raw)
		if !ok {
			issue("completedAt", "unparseable timestamp %s", string(raw))
		}
		out.CompletedAt = t
	}

	*it = out
	return nil
}

// ApplyKindDefaults sets the item kind when the record did not carry one and
// fills in the initial status for that kind.
func (it *PlanningItem) ApplyKindDefaults(kind ItemKind) {
	if it.Kind == "" {
		it.Kind = kind
	}
	if it.Status != "" {
		return
	}
	if it.Kind == KindBudget {
		it.Status = StatusUnpaid
		return
	}
	it.Status = StatusPending
}

// DecodeItems reads a JSON array of records and applies kind defaults to
// each. Anything other than an array of objects is a contract violation;
// problems inside a record only produce Issues.
func DecodeItems(data []byte, kind ItemKind) ([]PlanningItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ErrContractViolation{Argument: "items", Reason: "expected a JSON array of objects"}
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, &ErrContractViolation{Argument: "items", Reason: err.Error()}
	}
	items := make([]PlanningItem, len(raws))
	for i, raw := range raws {
		if err := items[i].UnmarshalJSON(raw); err != nil {
			return nil, &ErrContractViolation{Argument: "items", Reason: fmt.Sprintf("element %d is not an object", i)}
		}
		items[i].ApplyKindDefaults(kind)
	}
	return items, nil
}

// ValidatePatch checks the values of a camelCase update with the readers used
// for decoding records. Writes must be clean: the first value that decoding
// would coerce or drop is returned as *ErrValidation. Field names are not
// checked here.
func ValidatePatch(patch map[string]any) error {
	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		raw, err := json.Marshal(patch[field])
		if err != nil {
			return &ErrValidation{Field: field, Message: "value is not valid JSON"}
		}
		if msg := checkPatchValue(field, raw); msg != "" {
			return &ErrValidation{Field: field, Message: msg}
		}
	}
	return nil
}

func checkPatchValue(field string, raw json.RawMessage) string {
	switch field {
	case "amount", "estimatedCost", "actualCost":
		if _, msg := parseMoney(raw); msg != "" {
			return msg
		}
	case "dueDate", "completedAt", "createdAt":
		if _, ok := parseTime(raw); !ok {
			return fmt.Sprintf("unparseable date %s", string(raw))
		}
	case "priority":
		s, ok := rawString(raw)
		if !ok {
			return "priority must be a string"
		}
		if _, known := ParsePriority(s); !known {
			return fmt.Sprintf("unknown priority %q", s)
		}
	case "status":
		s, ok := rawString(raw)
		if !ok {
			return "status must be a string"
		}
		if s != "" && !NormalizeStatus(s).Known() {
			return fmt.Sprintf("unrecognized status %q", s)
		}
	case "isPaid":
		if _, ok := parseBool(raw); !ok {
			return fmt.Sprintf("unreadable isPaid value %s", string(raw))
		}
	default:
		if _, ok := rawString(raw); !ok {
			return field + " must be a string"
		}
	}
	return ""
}

// itemJSON is the outbound (camelCase) shape of a PlanningItem.
type itemJSON struct {
	ID            *ItemID          `json:"id,omitempty"`
	Kind          ItemKind         `json:"kind,omitempty"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Category      string           `json:"category,omitempty"`
	Priority      Priority         `json:"priority,omitempty"`
	Status        Status           `json:"status,omitempty"`
	IsPaid        *bool            `json:"isPaid,omitempty"`
	Timeframe     string           `json:"timeframe,omitempty"`
	DueDate       string           `json:"dueDate,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	EstimatedCost *decimal.Decimal `json:"estimatedCost,omitempty"`
	ActualCost    *decimal.Decimal `json:"actualCost,omitempty"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
}

// MarshalJSON emits the canonical camelCase form. Due dates are written as
// calendar dates since only the date portion is meaningful. A zero ID is
// omitted.
func (it PlanningItem) MarshalJSON() ([]byte, error) {
	out := itemJSON{
		Kind:          it.Kind,
		Title:         it.Title,
		Description:   it.Description,
		Notes:         it.Notes,
		Category:      it.Category,
		Priority:      it.Priority,
		Status:        it.Status,
		Timeframe:     it.Timeframe,
		Amount:        it.Amount,
		EstimatedCost: it.EstimatedCost,
		ActualCost:    it.ActualCost,
		CreatedAt:     it.CreatedAt,
		CompletedAt:   it.CompletedAt,
	}
	if !it.ID.IsZero() {
		id := it.ID
		out.ID = &id
	}
	if it.DueDate != nil {
		out.DueDate = it.DueDate.Format(DateLayout)
	}
	if it.Status == StatusPaid || it.Status == StatusUnpaid {
		paid := it.Status == StatusPaid
		out.IsPaid = &paid
	}
	return json.Marshal(out)
}

// MarshalJSON writes numeric IDs as JSON numbers and everything else as strings.
// A zero ID marshals as null.
func (id ItemID) MarshalJSON() ([]byte, error) {
	if id.value == "" {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON accepts a JSON number or string.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	parsed, ok := parseID(data)
	if !ok && !isNull(data) {
		return fmt.Errorf("invalid item id %s", string(data))
	}
	*id = parsed
	return nil
}

// ParseItemID interprets a path or query parameter. All-digit values become
// numeric IDs so they compare and marshal like the stored record.
func ParseItemID(s string) ItemID {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntID(n)
	}
	return StringID(s)
}

// ============================================================
// Scalar helpers
// ============================================================

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func firstPresent(raws ...json.RawMessage) json.RawMessage {
	for _, r := range raws {
		if !isNull(r) {
			return r
		}
	}
	return nil
}

// rawString reads a JSON string, number or bool as text. Null or absent
// values yield "" and ok=true; objects and arrays yield ok=false.
func rawString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", true
	}
	t := bytes.TrimSpace(raw)
	switch t[0] {
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		return string(t), true
	}
}

func parseID(raw json.RawMessage) (ItemID, bool) {
	if isNull(raw) {
		return ItemID{}, false
	}
	t := bytes.TrimSpace(raw)
	if t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil || strings.TrimSpace(s) == "" {
			return ItemID{}, false
		}
		return StringID(s), true
	}
	if t[0] == '{' || t[0] == '[' {
		return ItemID{}, false
	}
	text := string(t)
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return IntID(n), true
	}
	if isDigits(text) {
		return ItemID{value: strings.TrimLeft(text, "0"), numeric: true}, true
	}
	return StringID(text), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseBool(raw json.RawMessage) (bool, bool) {
	s, ok := rawString(raw)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "paid":
		return true, true
	case "false", "0", "no", "", "unpaid":
		return false, true
	}
	return false, false
}

// parseTime accepts the calendar date and timestamp layouts in timestampLayouts.
// Empty strings mean "no value" and are not an anomaly.
func parseTime(raw json.RawMessage) (*time.Time, bool) {
	s, ok := rawString(raw)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// parseMoney coerces a cost field. Non-numeric and negative inputs become zero
// and return a message describing the coercion.
func parseMoney(raw json.RawMessage) (*decimal.Decimal, string) {
	s, ok := rawString(raw)
	if !ok {
		zero := decimal.Zero
		return &zero, fmt.Sprintf("non-numeric amount %s coerced to 0", string(raw))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ""
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		zero := decimal.Zero
		return &zero, fmt.Sprintf("non-numeric amount %q coerced to 0", s)
	}
	if d.IsNegative() {
		zero := decimal.Zero
		return &zero, fmt.Sprintf("negative amount %s coerced to 0", d.String())
	}
	return &d, ""
}
