package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/planning"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/service"
)

// ============================================================
// Items
// ============================================================

func listItemsHandler(svc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectId}/items")
		defer span.End()

		kind, err := queryKind(r, domain.KindTask)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		items, err := svc.ListItems(ctx, chi.URLParam(r, "projectId"), kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func createItemHandler(svc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects/{projectId}/items")
		defer span.End()

		var item domain.PlanningItem
		if err := decodeBody(w, r, &item); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if item.Kind == "" {
			kind, err := queryKind(r, domain.KindTask)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			item.Kind = kind
		}

		created, err := svc.CreateItem(ctx, chi.URLParam(r, "projectId"), &item)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateItemHandler(svc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/projects/{projectId}/items/{itemId}")
		defer span.End()

		kind, err := queryKind(r, domain.KindTask)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		var patch map[string]any
		if err := decodeBody(w, r, &patch); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		id := domain.ParseItemID(chi.URLParam(r, "itemId"))
		span.SetAttributes(attribute.String("item.id", id.String()))
		updated, err := svc.UpdateItem(ctx, chi.URLParam(r, "projectId"), kind, id, patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteItemHandler(svc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/projects/{projectId}/items/{itemId}")
		defer span.End()

		kind, err := queryKind(r, domain.KindTask)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		id := domain.ParseItemID(chi.URLParam(r, "itemId"))
		if err := svc.DeleteItem(ctx, chi.URLParam(r, "projectId"), kind, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "item deleted", ID: id.String()})
	}
}

// ============================================================
// Views
// ============================================================

// viewRequest collects kind, criteria, options and the optional ?now= pin.
func viewRequest(r *http.Request, svc *service.PlanningService) (service.ViewRequest, error) {
	kind, err := queryKind(r, domain.KindTask)
	if err != nil {
		return service.ViewRequest{}, err
	}
	asOf, err := referenceDate(r, svc)
	if err != nil {
		return service.ViewRequest{}, err
	}
	return service.ViewRequest{
		Kind:     kind,
		Criteria: parseCriteria(r),
		Options:  parseOptions(r),
		AsOf:     asOf,
	}, nil
}

func referenceDate(r *http.Request, svc *service.PlanningService) (time.Time, error) {
	v := r.URL.Query().Get("now")
	if v == "" {
		return time.Time{}, nil
	}
	return svc.ParseReferenceDate(v)
}

func timelineHandler(svc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectId}/timeline")
		defer span.End()

		req, err := viewRequest(r, svc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		view, err := svc.Timeline(ctx, chi.URLParam(r, "projectId"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func timeframesHandler(svc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectId}/timeline/timeframes")
		defer span.End()

		req, err := viewRequest(r, svc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		view, err := svc.Timeframes(ctx, chi.URLParam(r, "projectId"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func summaryHandler(svc *service.PlanningService, kind domain.ItemKind, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectId}/"+string(kind)+"/summary")
		defer span.End()

		asOf, err := referenceDate(r, svc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		stats, err := svc.Summary(ctx, chi.URLParam(r, "projectId"), kind, asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func dashboardHandler(svc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectId}/dashboard")
		defer span.End()

		asOf, err := referenceDate(r, svc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		d, err := svc.Dashboard(ctx, chi.URLParam(r, "projectId"), asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// statelessViewRequest is the body of POST /v1/views.
type statelessViewRequest struct {
	Items    json.RawMessage   `json:"items"`
	Kind     string            `json:"kind"`
	Criteria planning.Criteria `json:"criteria"`
	Now      string            `json:"now"`
	Options  planning.Options  `json:"options"`
}

func statelessViewHandler(svc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/views")
		defer span.End()

		var body statelessViewRequest
		if err := decodeBody(w, r, &body); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var kind domain.ItemKind
		if strings.TrimSpace(body.Kind) != "" {
			k, ok := domain.ParseItemKind(body.Kind)
			if !ok {
				handleServiceError(w, &domain.ErrValidation{Field: "kind", Message: "must be one of task, budget, vendor"}, logger)
				return
			}
			kind = k
		}
		if strings.TrimSpace(body.Now) == "" {
			handleServiceError(w, &domain.ErrContractViolation{Argument: "now", Reason: "reference date is required"}, logger)
			return
		}
		asOf, err := svc.ParseReferenceDate(body.Now)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		items, err := domain.DecodeItems(body.Items, kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		view, err := svc.BuildStateless(ctx, items, body.Criteria, asOf, body.Options)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
