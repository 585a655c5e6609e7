package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/service"
)

// ============================================================
// Saved views
// ============================================================

func listSavedViewsHandler(svc *service.SavedViewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectId}/saved-views")
		defer span.End()

		views, err := svc.List(ctx, chi.URLParam(r, "projectId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func createSavedViewHandler(svc *service.SavedViewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects/{projectId}/saved-views")
		defer span.End()

		var req domain.CreateSavedViewRequest
		if err := decodeBody(w, r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		view, err := svc.Create(ctx, chi.URLParam(r, "projectId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func deleteSavedViewHandler(svc *service.SavedViewService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/projects/{projectId}/saved-views/{viewId}")
		defer span.End()

		viewID := chi.URLParam(r, "viewId")
		if err := svc.Delete(ctx, chi.URLParam(r, "projectId"), viewID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "saved view deleted", ID: viewID})
	}
}

func savedViewTimelineHandler(svc *service.SavedViewService, planSvc *service.PlanningService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectId}/saved-views/{viewId}/timeline")
		defer span.End()

		asOf, err := referenceDate(r, planSvc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		view, err := svc.Timeline(ctx, chi.URLParam(r, "projectId"), chi.URLParam(r, "viewId"), asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
