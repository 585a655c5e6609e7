package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/client"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/resilience"
)

func newItemsClient(t *testing.T, h http.HandlerFunc) *client.ItemsClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	guard := resilience.NewGuard("planning-api", resilience.Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxConcurrency: 4,
	})
	return client.NewItemsClient(srv.Client(), srv.URL, guard)
}

func TestItemsClient_ListItems(t *testing.T) {
	c := newItemsClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/wedding-1/tasks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id": 1, "title": "Book venue", "dueDate": "2026-08-01", "priority": "HIGH"}, {"id": "abc", "title": "Cake"}]`))
	})

	items, err := c.ListItems(context.Background(), "wedding-1", domain.KindTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Priority != domain.PriorityHigh || items[0].Kind != domain.KindTask || items[0].Status != domain.StatusPending {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].ID.IsNumeric() {
		t.Error("string id should stay a string")
	}
}

func TestItemsClient_NotFound(t *testing.T) {
	var calls int32
	c := newItemsClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.DeleteItem(context.Background(), "wedding-1", domain.KindVendor, domain.IntID(3))

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if nf.Resource != "vendor" || nf.ID != "3" {
		t.Errorf("unexpected not found %+v", nf)
	}
	if calls != 1 {
		t.Errorf("404 must not be retried, got %d calls", calls)
	}
}

func TestItemsClient_ServerErrorBecomesExternal(t *testing.T) {
	var calls int32
	c := newItemsClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.ListItems(context.Background(), "wedding-1", domain.KindBudget)

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestItemsClient_CreateAndUpdate(t *testing.T) {
	c := newItemsClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		switch r.Method {
		case http.MethodPost:
			if r.URL.Path != "/v1/projects/wedding-1/budgets" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if body["isPaid"] != false || body["estimatedCost"] != "250" {
				t.Errorf("unexpected create body %v", body)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": 12, "title": "Veil", "isPaid": false, "estimatedCost": 250}`))
		case http.MethodPatch:
			if r.URL.Path != "/v1/projects/wedding-1/budgets/12" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id": 12, "title": "Veil", "isPaid": true}`))
		}
	})

	est := mustDecimal(t, "250")
	created, err := c.CreateItem(context.Background(), "wedding-1", &domain.PlanningItem{
		Kind: domain.KindBudget, Title: "Veil", Status: domain.StatusUnpaid, EstimatedCost: &est,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID.String() != "12" || created.Status != domain.StatusUnpaid {
		t.Errorf("unexpected created %+v", created)
	}

	updated, err := c.UpdateItem(context.Background(), "wedding-1", domain.KindBudget, created.ID, map[string]any{"isPaid": true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.StatusPaid {
		t.Errorf("expected paid, got %q", updated.Status)
	}
}

func TestItemsClient_ForwardsCallerToken(t *testing.T) {
	c := newItemsClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer user-a-jwt" {
			t.Errorf("unexpected Authorization %q", got)
		}
		w.Write([]byte(`[]`))
	})

	ctx := domain.WithCaller(context.Background(), domain.Caller{Subject: "user-a", Token: "user-a-jwt"})
	if _, err := c.ListItems(ctx, "wedding-1", domain.KindTask); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestItemsClient_ForbiddenIsNotRetried(t *testing.T) {
	var calls int32
	c := newItemsClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.ListItems(context.Background(), "wedding-1", domain.KindTask)
	var fe *domain.ErrForbidden
	if !errors.As(err, &fe) {
		t.Fatalf("expected ErrForbidden, got %T %v", err, err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestItemsClient_CanAccessProject(t *testing.T) {
	c := newItemsClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/projects/mine":
			w.Write([]byte(`{"id": "mine"}`))
		case "/v1/projects/theirs":
			w.WriteHeader(http.StatusForbidden)
		case "/v1/projects/down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	for project, want := range map[string]bool{"mine": true, "theirs": false, "gone": false} {
		ok, err := c.CanAccessProject(ctx, project)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", project, err)
		}
		if ok != want {
			t.Errorf("%s: got %v, want %v", project, ok, want)
		}
	}

	_, err := c.CanAccessProject(ctx, "down")
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Errorf("expected ErrExternalService for an upstream failure, got %T %v", err, err)
	}
}
