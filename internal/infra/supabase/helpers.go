package supabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// ============================================================
// Table and column mapping
// ============================================================

const (
	tableTasks   = "tasks"
	tableBudget  = "budget_items"
	tableVendors = "vendors"

	// tableProjects holds one row per wedding project; its policies decide
	// which users may see the project.
	tableProjects = "projects"
)

func tableFor(kind domain.ItemKind) (string, error) {
	switch kind {
	case domain.KindTask:
		return tableTasks, nil
	case domain.KindBudget:
		return tableBudget, nil
	case domain.KindVendor:
		return tableVendors, nil
	}
	return "", &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown kind %q", kind)}
}

// columnFor translates a camelCase API field into its PostgREST column.
var columnFor = map[string]string{
	"title":         "title",
	"description":   "description",
	"notes":         "notes",
	"category":      "category",
	"priority":      "priority",
	"status":        "status",
	"timeframe":     "timeframe",
	"dueDate":       "due_date",
	"amount":        "amount",
	"estimatedCost": "estimated_cost",
	"actualCost":    "actual_cost",
	"isPaid":        "is_paid",
	"completedAt":   "completed_at",
}

// patchColumns renames patch keys for the given table. Vendors store their
// title as name, and budget rows keep paid state in is_paid.
func patchColumns(kind domain.ItemKind, patch map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		col, ok := columnFor[k]
		if !ok {
			return nil, &domain.ErrValidation{Field: k, Message: "field cannot be updated"}
		}
		switch {
		case kind == domain.KindVendor && col == "title":
			col = "name"
		case kind == domain.KindBudget && col == "status":
			s, _ := v.(string)
			out["is_paid"] = domain.NormalizeStatus(s) == domain.StatusPaid
			continue
		}
		out[col] = v
	}
	return out, nil
}

// itemRow builds the insert payload for item.
func itemRow(projectID string, item *domain.PlanningItem) map[string]any {
	row := map[string]any{"project_id": projectID}
	if !item.ID.IsZero() {
		row["id"] = item.ID
	}

	titleCol := "title"
	if item.Kind == domain.KindVendor {
		titleCol = "name"
	}
	row[titleCol] = item.Title

	set := func(col, v string) {
		if strings.TrimSpace(v) != "" {
			row[col] = v
		}
	}
	set("description", item.Description)
	set("notes", item.Notes)
	set("category", item.Category)
	set("priority", string(item.Priority))
	set("timeframe", item.Timeframe)

	if item.Kind == domain.KindBudget {
		row["is_paid"] = item.Status == domain.StatusPaid
	} else {
		set("status", string(item.Status))
	}

	if item.DueDate != nil {
		row["due_date"] = item.DueDate.Format(domain.DateLayout)
	}
	if item.Amount != nil {
		row["amount"] = item.Amount
	}
	if item.EstimatedCost != nil {
		row["estimated_cost"] = item.EstimatedCost
	}
	if item.ActualCost != nil {
		row["actual_cost"] = item.ActualCost
	}
	if item.CompletedAt != nil {
		row["completed_at"] = item.CompletedAt
	}
	return row
}

// ============================================================
// Query and body helpers
// ============================================================

func eq(v string) string {
	return "eq." + url.QueryEscape(v)
}

// decodeRows leniently decodes a PostgREST array and fills kind defaults.
func decodeRows(body []byte, kind domain.ItemKind) ([]domain.PlanningItem, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []domain.PlanningItem{}, nil
	}
	var rows []domain.PlanningItem
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", kind, err)
	}
	for i := range rows {
		rows[i].ApplyKindDefaults(kind)
	}
	if rows == nil {
		rows = []domain.PlanningItem{}
	}
	return rows, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
