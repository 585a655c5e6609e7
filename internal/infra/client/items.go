package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

const serviceName = "planning-api"

// ItemsClient talks to the planning REST API (implements port.PlanningStore).
type ItemsClient struct {
	httpClient *http.Client
	baseURL    string
	guard      *resilience.Guard
}

// NewItemsClient creates a new ItemsClient.
func NewItemsClient(httpClient *http.Client, baseURL string, guard *resilience.Guard) *ItemsClient {
	return &ItemsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		guard:      guard,
	}
}

func (c *ItemsClient) collectionURL(projectID string, kind domain.ItemKind) string {
	return fmt.Sprintf("%s/v1/projects/%s/%ss", c.baseURL, url.PathEscape(projectID), kind)
}

func (c *ItemsClient) itemURL(projectID string, kind domain.ItemKind, id domain.ItemID) string {
	return c.collectionURL(projectID, kind) + "/" + url.PathEscape(id.String())
}

// ListItems fetches every item of kind for a project.
func (c *ItemsClient) ListItems(ctx context.Context, projectID string, kind domain.ItemKind) ([]domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "ItemsClient.ListItems")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("item.kind", string(kind)))

	var items []domain.PlanningItem
	err := c.do(ctx, http.MethodGet, c.collectionURL(projectID, kind), nil, &items, string(kind), projectID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.PlanningItem{}
	}
	for i := range items {
		items[i].ApplyKindDefaults(kind)
	}
	return items, nil
}

// CreateItem posts a new item and returns the stored representation.
func (c *ItemsClient) CreateItem(ctx context.Context, projectID string, item *domain.PlanningItem) (*domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "ItemsClient.CreateItem")
	defer span.End()

	var created domain.PlanningItem
	if err := c.do(ctx, http.MethodPost, c.collectionURL(projectID, item.Kind), item, &created, string(item.Kind), ""); err != nil {
		return nil, err
	}
	created.ApplyKindDefaults(item.Kind)
	return &created, nil
}

// UpdateItem applies a camelCase patch.
func (c *ItemsClient) UpdateItem(ctx context.Context, projectID string, kind domain.ItemKind, id domain.ItemID, patch map[string]any) (*domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "ItemsClient.UpdateItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", id.String()))

	var updated domain.PlanningItem
	if err := c.do(ctx, http.MethodPatch, c.itemURL(projectID, kind, id), patch, &updated, string(kind), id.String()); err != nil {
		return nil, err
	}
	updated.ApplyKindDefaults(kind)
	return &updated, nil
}

// DeleteItem removes an item.
func (c *ItemsClient) DeleteItem(ctx context.Context, projectID string, kind domain.ItemKind, id domain.ItemID) error {
	ctx, span := tracer.Start(ctx, "ItemsClient.DeleteItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", id.String()))

	return c.do(ctx, http.MethodDelete, c.itemURL(projectID, kind, id), nil, nil, string(kind), id.String())
}

// CanAccessProject asks the planning API whether the caller may open the
// project. 404, 401 and 403 all mean no.
func (c *ItemsClient) CanAccessProject(ctx context.Context, projectID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "ItemsClient.CanAccessProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	target := fmt.Sprintf("%s/v1/projects/%s", c.baseURL, url.PathEscape(projectID))
	err := c.do(ctx, http.MethodGet, target, nil, nil, "project", projectID)

	var (
		nf *domain.ErrNotFound
		fe *domain.ErrForbidden
	)
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &nf), errors.As(err, &fe):
		return false, nil
	}
	return false, err
}

// do sends one JSON request with retry, circuit breaker and bulkhead. 404
// becomes ErrNotFound for resource/id; other 4xx are not retried.
func (c *ItemsClient) do(ctx context.Context, method, target string, payload, out any, resource, id string) error {
	err := c.guard.Do(ctx, func() error {
		var body io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return resilience.Permanent(err)
			}
			body = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if caller, ok := domain.CallerFromContext(ctx); ok && caller.Token != "" {
			req.Header.Set("Authorization", "Bearer "+caller.Token)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return resilience.Permanent(&domain.ErrNotFound{Resource: resource, ID: id})
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return resilience.Permanent(&domain.ErrForbidden{Resource: resource, ID: id})
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return resilience.Permanent(&domain.ErrValidation{Field: resource, Message: string(bytes.TrimSpace(msg))})
		case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
			return resilience.Permanent(fmt.Errorf("planning API returned status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("planning API returned status %d", resp.StatusCode)
		}

		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resilience.Permanent(&domain.ErrContractViolation{Argument: "response", Reason: err.Error()})
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var (
		nf *domain.ErrNotFound
		ve *domain.ErrValidation
		fe *domain.ErrForbidden
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ve), errors.As(err, &fe):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: serviceName}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: method + " " + resource}
	}
	return &domain.ErrExternalService{Service: serviceName, Err: err}
}
