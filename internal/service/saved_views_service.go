package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/planning"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/port"
)

const (
	maxViewIDLen    = 63
	fallbackViewID  = "view"
	createAttempts  = 3
	maxViewNameRune = 120
)

// SavedViewService manages named criteria presets and renders them through
// the planning service.
type SavedViewService struct {
	store    port.SavedViewStore
	planning *PlanningService
	clock    Clock
	logger   *zap.Logger
}

// NewSavedViewService creates a saved view service.
func NewSavedViewService(store port.SavedViewStore, planning *PlanningService, logger *zap.Logger) *SavedViewService {
	return &SavedViewService{store: store, planning: planning, clock: planning.clock, logger: logger}
}

// List returns the project's saved views ordered by creation.
func (s *SavedViewService) List(ctx context.Context, projectID string) ([]domain.SavedView, error) {
	ctx, span := tracer.Start(ctx, "SavedViewService.List")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	return s.store.ListSavedViews(ctx, projectID)
}

// Create validates req and stores it under a slug of its name that is unique
// within the project. Concurrent creates that race for the same slug retry
// with the next free suffix.
func (s *SavedViewService) Create(ctx context.Context, projectID string, req *domain.CreateSavedViewRequest) (*domain.SavedView, error) {
	ctx, span := tracer.Start(ctx, "SavedViewService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if req == nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "body is required"}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if len([]rune(name)) > maxViewNameRune {
		return nil, &domain.ErrValidation{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxViewNameRune)}
	}
	kind := domain.KindTask
	if strings.TrimSpace(req.Kind) != "" {
		k, ok := domain.ParseItemKind(req.Kind)
		if !ok {
			return nil, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown kind %q", req.Kind)}
		}
		kind = k
	}
	if d := req.Criteria.DueWithinDays; d != nil && *d < 0 {
		return nil, &domain.ErrValidation{Field: "criteria.dueWithinDays", Message: "must not be negative"}
	}

	view := &domain.SavedView{
		ProjectID:        projectID,
		Name:             name,
		Kind:             kind,
		Criteria:         req.Criteria,
		ExcludeCompleted: req.ExcludeCompleted,
		PerBucketStats:   req.PerBucketStats,
		CreatedAt:        s.clock().UTC(),
	}

	for attempt := 1; ; attempt++ {
		existing, err := s.store.ListSavedViewIDs(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("list saved view ids: %w", err)
		}
		view.ID = nextUniqueViewID(existing, name)

		err = s.store.CreateSavedView(ctx, view)
		if err == nil {
			break
		}
		var conflict *domain.ErrConflict
		if !errors.As(err, &conflict) || attempt == createAttempts {
			return nil, fmt.Errorf("create saved view: %w", err)
		}
		s.logger.Debug("saved view id taken, retrying",
			zap.String("project_id", projectID),
			zap.String("view_id", view.ID),
		)
	}

	s.logger.Info("saved view created",
		zap.String("project_id", projectID),
		zap.String("view_id", view.ID),
	)
	return view, nil
}

// Delete removes a saved view.
func (s *SavedViewService) Delete(ctx context.Context, projectID, viewID string) error {
	ctx, span := tracer.Start(ctx, "SavedViewService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("view.id", viewID))

	return s.store.DeleteSavedView(ctx, projectID, viewID)
}

// Timeline renders the timeline of a saved view's kind with its stored
// criteria and options.
func (s *SavedViewService) Timeline(ctx context.Context, projectID, viewID string, asOf time.Time) (*planning.View, error) {
	ctx, span := tracer.Start(ctx, "SavedViewService.Timeline")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("view.id", viewID))

	saved, err := s.store.GetSavedView(ctx, projectID, viewID)
	if err != nil {
		return nil, err
	}
	return s.planning.Timeline(ctx, projectID, ViewRequest{
		Kind:     saved.Kind,
		Criteria: saved.Criteria,
		Options: planning.Options{
			ExcludeCompleted: saved.ExcludeCompleted,
			PerBucketStats:   saved.PerBucketStats,
		},
		AsOf: asOf,
	})
}

// ============================================================
// View IDs
// ============================================================

// slugifyViewID lower-cases raw and keeps runs of [a-z0-9], collapsing
// everything else into single dashes.
func slugifyViewID(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(raw))
	lastDash := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9'):
			b.WriteByte(ch)
			lastDash = false
		case b.Len() > 0 && !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	id := strings.Trim(b.String(), "-")
	if id == "" {
		return fallbackViewID
	}
	if len(id) > maxViewIDLen {
		id = strings.TrimRight(id[:maxViewIDLen], "-")
	}
	return id
}

// nextUniqueViewID returns the slug of name, suffixed with -2, -3, ... until
// it does not collide with existing.
func nextUniqueViewID(existing []string, name string) string {
	candidate := slugifyViewID(name)
	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[strings.ToLower(strings.TrimSpace(id))] = true
	}
	if !seen[candidate] {
		return candidate
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf("-%d", i)
		base := candidate
		if len(base)+len(suffix) > maxViewIDLen {
			base = strings.TrimRight(base[:maxViewIDLen-len(suffix)], "-")
		}
		if next := base + suffix; !seen[next] {
			return next
		}
	}
}
