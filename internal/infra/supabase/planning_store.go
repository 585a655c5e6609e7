package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// ============================================================
// Planning items: CRUD via PostgREST (implements port.PlanningStore)
// ============================================================

func (c *Client) ListItems(ctx context.Context, projectID string, kind domain.ItemKind) ([]domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListItems")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("item.kind", string(kind)))

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s?project_id=%s&order=id.asc", table, eq(projectID))
	body, err := c.call(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, wrapErr("list_"+table, err)
	}

	items, err := decodeRows(body, kind)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: serviceName + "/list_" + table, Err: err}
	}
	span.SetAttributes(attribute.Int("item.count", len(items)))
	return items, nil
}

func (c *Client) CreateItem(ctx context.Context, projectID string, item *domain.PlanningItem) (*domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateItem")
	defer span.End()

	table, err := tableFor(item.Kind)
	if err != nil {
		return nil, err
	}

	body, err := c.call(ctx, http.MethodPost, table, itemRow(projectID, item), "return=representation")
	if err != nil {
		return nil, wrapErr("create_"+table, err)
	}

	rows, err := decodeRows(body, item.Kind)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: serviceName + "/create_" + table, Err: err}
	}
	if len(rows) == 0 {
		c.logger.Warn("supabase: insert returned no representation", zap.String("table", table))
		return item, nil
	}
	return &rows[0], nil
}

func (c *Client) UpdateItem(ctx context.Context, projectID string, kind domain.ItemKind, id domain.ItemID, patch map[string]any) (*domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", id.String()))

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	cols, err := patchColumns(kind, patch)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s?project_id=%s&id=%s", table, eq(projectID), eq(id.String()))
	body, err := c.call(ctx, http.MethodPatch, path, cols, "return=representation")
	if err != nil {
		return nil, wrapErr("update_"+table, err)
	}

	rows, err := decodeRows(body, kind)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: serviceName + "/update_" + table, Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: string(kind), ID: id.String()}
	}
	return &rows[0], nil
}

func (c *Client) DeleteItem(ctx context.Context, projectID string, kind domain.ItemKind, id domain.ItemID) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", id.String()))

	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("%s?project_id=%s&id=%s", table, eq(projectID), eq(id.String()))
	body, err := c.call(ctx, http.MethodDelete, path, nil, "return=representation")
	if err != nil {
		return wrapErr("delete_"+table, err)
	}

	rows, err := decodeRows(body, kind)
	if err != nil {
		return &domain.ErrExternalService{Service: serviceName + "/delete_" + table, Err: err}
	}
	if len(rows) == 0 {
		return &domain.ErrNotFound{Resource: string(kind), ID: id.String()}
	}
	return nil
}

// CanAccessProject reports whether the caller's row-level policies expose the
// project. A 401 or 403 from PostgREST counts as no access.
func (c *Client) CanAccessProject(ctx context.Context, projectID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CanAccessProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	path := fmt.Sprintf("%s?id=%s&select=id&limit=1", tableProjects, eq(projectID))
	body, err := c.call(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		var serr *statusError
		if errors.As(err, &serr) && (serr.Status == http.StatusUnauthorized || serr.Status == http.StatusForbidden) {
			return false, nil
		}
		return false, wrapErr("access_"+tableProjects, err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return false, &domain.ErrExternalService{Service: serviceName + "/access_" + tableProjects, Err: err}
	}
	return len(rows) > 0, nil
}
