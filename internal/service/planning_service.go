// Package service provides the business logic layer (use cases).
// PlanningService loads planning records from the persistence collaborator,
// feeds them to the aggregation engine and keeps the item and view caches
// coherent with mutations.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/observability"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/planning"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/port"
)

var tracer = otel.Tracer("service/planning")

// Clock returns the current wall time.
type Clock func() time.Time

// ViewRequest carries everything a timeline or timeframe view depends on
// besides the records themselves. A zero AsOf means "now".
type ViewRequest struct {
	Kind     domain.ItemKind
	Criteria planning.Criteria
	Options  planning.Options
	AsOf     time.Time
}

// Dashboard is the per-kind overview for one project.
type Dashboard struct {
	ReferenceDate string                             `json:"referenceDate"`
	Kinds         map[domain.ItemKind]planning.Stats `json:"kinds"`
}

// PlanningService orchestrates planning records and engine views.
type PlanningService struct {
	store      port.PlanningStore
	items      port.StaleCache[[]domain.PlanningItem]
	views      port.StaleCache[any]
	timeframes *planning.TimeframeTable
	clock      Clock
	loc        *time.Location
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// Option customizes a PlanningService.
type Option func(*PlanningService)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(s *PlanningService) { s.clock = c }
}

// WithLocation sets the planning time zone used to derive "today".
func WithLocation(loc *time.Location) Option {
	return func(s *PlanningService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithTimeframes sets the ordered timeframe labels for timeframe views.
func WithTimeframes(t *planning.TimeframeTable) Option {
	return func(s *PlanningService) { s.timeframes = t }
}

// NewPlanningService creates the planning service with all dependencies injected.
func NewPlanningService(
	store port.PlanningStore,
	items port.StaleCache[[]domain.PlanningItem],
	views port.StaleCache[any],
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *PlanningService {
	s := &PlanningService{
		store:      store,
		items:      items,
		views:      views,
		timeframes: planning.NewTimeframeTable(nil),
		clock:      time.Now,
		loc:        time.UTC,
		metrics:    metrics,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseReferenceDate reads a YYYY-MM-DD pin in the planning time zone. Full
// RFC 3339 timestamps are accepted too.
func (s *PlanningService) ParseReferenceDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.ParseInLocation(domain.DateLayout, v, s.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, &domain.ErrContractViolation{Argument: "now", Reason: "expected YYYY-MM-DD"}
}

func (s *PlanningService) now(asOf time.Time) time.Time {
	if asOf.IsZero() {
		asOf = s.clock()
	}
	return asOf.In(s.loc)
}

// ============================================================
// Items
// ============================================================

// itemsKey scopes snapshots to the caller: the store may return different
// rows to different users of the same project.
func itemsKey(ctx context.Context, projectID string, kind domain.ItemKind) string {
	caller, _ := domain.CallerFromContext(ctx)
	return fmt.Sprintf("items:%s:%s:%s", projectID, kind, caller.Subject)
}

func accessKey(projectID, subject string) string {
	return fmt.Sprintf("access:%s:%s", projectID, subject)
}

func validateKind(kind domain.ItemKind) error {
	if k, ok := domain.ParseItemKind(string(kind)); !ok || k != kind {
		return &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown kind %q", kind)}
	}
	return nil
}

// ListItems returns every record of one kind for a project.
func (s *PlanningService) ListItems(ctx context.Context, projectID string, kind domain.ItemKind) ([]domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.ListItems")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("item.kind", string(kind)))

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	return s.loadItems(ctx, projectID, kind)
}

// loadItems reads through the item cache. When the store fails and an
// expired snapshot is still retained, the snapshot is served instead.
func (s *PlanningService) loadItems(ctx context.Context, projectID string, kind domain.ItemKind) ([]domain.PlanningItem, error) {
	key := itemsKey(ctx, projectID, kind)
	if cached, ok := s.items.Get(key); ok {
		s.metrics.IncrCacheHit(observability.CacheItems)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(observability.CacheItems)

	start := time.Now()
	items, err := s.store.ListItems(ctx, projectID, kind)
	s.metrics.RecordRequestDuration("store_list", time.Since(start))
	if err != nil {
		s.metrics.IncrExternalError("planning_store")
		if stale, ok := s.items.GetStale(key); ok {
			s.logger.Warn("serving stale items after store failure",
				zap.String("project_id", projectID),
				zap.String("kind", string(kind)),
				zap.Int("count", len(stale)),
				zap.Error(err),
			)
			return stale, nil
		}
		s.logger.Error("failed to list items",
			zap.String("project_id", projectID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list %s items: %w", kind, err)
	}

	for i := range items {
		items[i].ApplyKindDefaults(kind)
	}
	s.items.Set(key, items)
	return items, nil
}

// CreateItem stores a new record. A missing ID is filled with a UUID.
func (s *PlanningService) CreateItem(ctx context.Context, projectID string, item *domain.PlanningItem) (*domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.CreateItem")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if item == nil {
		return nil, &domain.ErrValidation{Field: "item", Message: "body is required"}
	}
	if err := validateKind(item.Kind); err != nil {
		return nil, err
	}
	// Records written by clients must be clean; coercion is for reads.
	if len(item.Issues) > 0 {
		first := item.Issues[0]
		return nil, &domain.ErrValidation{Field: first.Field, Message: first.Message}
	}
	if strings.TrimSpace(item.Title) == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "title is required"}
	}
	if item.ID.IsZero() {
		item.ID = domain.StringID(uuid.NewString())
	}
	item.ApplyKindDefaults(item.Kind)

	created, err := s.store.CreateItem(ctx, projectID, item)
	if err != nil {
		s.logger.Error("failed to create item",
			zap.String("project_id", projectID),
			zap.String("kind", string(item.Kind)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create %s item: %w", item.Kind, err)
	}
	created.ApplyKindDefaults(item.Kind)
	s.invalidate(projectID)

	s.logger.Info("item created",
		zap.String("project_id", projectID),
		zap.String("kind", string(item.Kind)),
		zap.String("item_id", created.ID.String()),
	)
	return created, nil
}

// patchable lists the camelCase fields a client may change.
var patchable = map[string]bool{
	"title": true, "description": true, "notes": true, "category": true,
	"priority": true, "status": true, "timeframe": true, "dueDate": true,
	"amount": true, "estimatedCost": true, "actualCost": true, "isPaid": true,
	"completedAt": true,
}

// UpdateItem applies a partial update to one record.
func (s *PlanningService) UpdateItem(ctx context.Context, projectID string, kind domain.ItemKind, id domain.ItemID, patch map[string]any) (*domain.PlanningItem, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.UpdateItem")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("item.id", id.String()))

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if id.IsZero() {
		return nil, &domain.ErrValidation{Field: "id", Message: "item id is required"}
	}
	if len(patch) == 0 {
		return nil, &domain.ErrValidation{Field: "patch", Message: "nothing to update"}
	}
	for field := range patch {
		if !patchable[field] {
			return nil, &domain.ErrValidation{Field: field, Message: "field cannot be updated"}
		}
	}
	if title, ok := patch["title"]; ok {
		if str, _ := title.(string); strings.TrimSpace(str) == "" {
			return nil, &domain.ErrValidation{Field: "title", Message: "title cannot be empty"}
		}
	}
	if err := domain.ValidatePatch(patch); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateItem(ctx, projectID, kind, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update %s item %s: %w", kind, id, err)
	}
	updated.ApplyKindDefaults(kind)
	s.invalidate(projectID)
	return updated, nil
}

// DeleteItem removes one record.
func (s *PlanningService) DeleteItem(ctx context.Context, projectID string, kind domain.ItemKind, id domain.ItemID) error {
	ctx, span := tracer.Start(ctx, "PlanningService.DeleteItem")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("item.id", id.String()))

	if err := validateKind(kind); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, projectID, kind, id); err != nil {
		return fmt.Errorf("delete %s item %s: %w", kind, id, err)
	}
	s.invalidate(projectID)
	return nil
}

// invalidate drops every cached item list and view of a project.
func (s *PlanningService) invalidate(projectID string) {
	n := s.items.DeletePrefix("items:" + projectID + ":")
	n += s.views.DeletePrefix("views:" + projectID + ":")
	s.logger.Debug("cache invalidated", zap.String("project_id", projectID), zap.Int("entries", n))
}

// ============================================================
// Views
// ============================================================

// Timeline builds the due-date bucketed view for one kind.
func (s *PlanningService) Timeline(ctx context.Context, projectID string, req ViewRequest) (*planning.View, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.Timeline")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("item.kind", string(req.Kind)))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("timeline", time.Since(start))
	}()

	if err := validateKind(req.Kind); err != nil {
		return nil, err
	}
	items, err := s.loadItems(ctx, projectID, req.Kind)
	if err != nil {
		return nil, err
	}

	now := s.now(req.AsOf)
	key := viewKey(projectID, "timeline", req.Kind, items, req.Criteria, now, req.Options)
	if cached, ok := s.views.Get(key); ok {
		if v, ok := cached.(*planning.View); ok {
			s.metrics.IncrCacheHit(observability.CacheViews)
			return v, nil
		}
	}
	s.metrics.IncrCacheMiss(observability.CacheViews)

	view, err := planning.BuildView(items, req.Criteria, now, req.Options)
	if err != nil {
		return nil, err
	}
	s.recordView(projectID, string(req.Kind), view.Warnings)
	s.views.Set(key, view)
	return view, nil
}

// Timeframes builds the named-phase view for one kind.
func (s *PlanningService) Timeframes(ctx context.Context, projectID string, req ViewRequest) (*planning.TimeframeView, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.Timeframes")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("item.kind", string(req.Kind)))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("timeframes", time.Since(start))
	}()

	if err := validateKind(req.Kind); err != nil {
		return nil, err
	}
	items, err := s.loadItems(ctx, projectID, req.Kind)
	if err != nil {
		return nil, err
	}

	now := s.now(req.AsOf)
	key := viewKey(projectID, "timeframes", req.Kind, items, req.Criteria, now, req.Options)
	if cached, ok := s.views.Get(key); ok {
		if v, ok := cached.(*planning.TimeframeView); ok {
			s.metrics.IncrCacheHit(observability.CacheViews)
			return v, nil
		}
	}
	s.metrics.IncrCacheMiss(observability.CacheViews)

	view, err := planning.BuildTimeframeView(items, req.Criteria, now, s.timeframes)
	if err != nil {
		return nil, err
	}
	s.recordView(projectID, "timeframes", view.Warnings)
	s.views.Set(key, view)
	return view, nil
}

// Summary returns aggregate statistics over every record of one kind.
func (s *PlanningService) Summary(ctx context.Context, projectID string, kind domain.ItemKind, asOf time.Time) (*planning.Stats, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID), attribute.String("item.kind", string(kind)))

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	items, err := s.loadItems(ctx, projectID, kind)
	if err != nil {
		return nil, err
	}
	st := planning.Summarize(items, s.now(asOf))
	return &st, nil
}

// Dashboard summarizes every kind for a project, fetching them concurrently.
func (s *PlanningService) Dashboard(ctx context.Context, projectID string, asOf time.Time) (*Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "PlanningService.Dashboard")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	now := s.now(asOf)
	results := make([]planning.Stats, len(domain.AllKinds))

	g, gCtx := errgroup.WithContext(ctx)
	for i, kind := range domain.AllKinds {
		i, kind := i, kind
		g.Go(func() error {
			items, err := s.loadItems(gCtx, projectID, kind)
			if err != nil {
				return err
			}
			results[i] = planning.Summarize(items, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		ReferenceDate: now.Format(domain.DateLayout),
		Kinds:         make(map[domain.ItemKind]planning.Stats, len(results)),
	}
	for i, kind := range domain.AllKinds {
		d.Kinds[kind] = results[i]
	}
	return d, nil
}

// BuildStateless runs the engine over caller-supplied records without
// touching the store or the caches.
func (s *PlanningService) BuildStateless(ctx context.Context, items []domain.PlanningItem, c planning.Criteria, asOf time.Time, opts planning.Options) (*planning.View, error) {
	_, span := tracer.Start(ctx, "PlanningService.BuildStateless")
	defer span.End()
	span.SetAttributes(attribute.Int("items.count", len(items)))

	view, err := planning.BuildView(items, c, s.now(asOf), opts)
	if err != nil {
		return nil, err
	}
	s.recordView("", "stateless", view.Warnings)
	return view, nil
}

// AuthorizeProject checks that the caller in ctx may open the project. It is
// a no-op for unauthenticated requests and for stores that cannot answer.
// Answers are cached like item snapshots.
func (s *PlanningService) AuthorizeProject(ctx context.Context, projectID string) error {
	caller, ok := domain.CallerFromContext(ctx)
	if !ok {
		return nil
	}
	checker, ok := s.store.(port.ProjectAccessChecker)
	if !ok {
		return nil
	}

	ctx, span := tracer.Start(ctx, "PlanningService.AuthorizeProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	key := accessKey(projectID, caller.Subject)
	allowed, hit := s.views.Get(key)
	if hit {
		s.metrics.IncrCacheHit(observability.CacheAccess)
	} else {
		s.metrics.IncrCacheMiss(observability.CacheAccess)
		granted, err := checker.CanAccessProject(ctx, projectID)
		if err != nil {
			s.metrics.IncrExternalError("planning_store")
			s.logger.Error("project access check failed",
				zap.String("project_id", projectID),
				zap.String("user_id", caller.Subject),
				zap.Error(err),
			)
			return fmt.Errorf("check access to project %s: %w", projectID, err)
		}
		s.views.Set(key, granted)
		allowed = granted
	}

	if granted, _ := allowed.(bool); !granted {
		s.logger.Warn("project access denied",
			zap.String("project_id", projectID),
			zap.String("user_id", caller.Subject),
		)
		return &domain.ErrForbidden{Resource: "project", ID: projectID}
	}
	return nil
}

// Ping checks the persistence collaborator. supported is false when the
// store has no health check.
func (s *PlanningService) Ping(ctx context.Context) (supported bool, err error) {
	p, ok := s.store.(interface{ Ping(context.Context) error })
	if !ok {
		return false, nil
	}
	return true, p.Ping(ctx)
}

// TimeframeLabels returns the labels timeframe views are ordered by.
func (s *PlanningService) TimeframeLabels() []string {
	return s.timeframes.Labels()
}

func (s *PlanningService) recordView(projectID, view string, warnings []planning.Warning) {
	s.metrics.IncrViewBuilt(view)
	for _, w := range warnings {
		s.metrics.AddDataWarning(w.Field)
		s.logger.Debug("data warning",
			zap.String("project_id", projectID),
			zap.String("item_id", w.ItemID.String()),
			zap.String("field", w.Field),
			zap.String("message", w.Message),
		)
	}
}

// viewKey hashes everything a view depends on. Issues are hashed alongside
// the records since they are not part of the JSON form.
func viewKey(projectID, view string, kind domain.ItemKind, items []domain.PlanningItem, c planning.Criteria, now time.Time, opts planning.Options) string {
	h := xxhash.New()
	enc := json.NewEncoder(h)
	for _, it := range items {
		_ = enc.Encode(it)
		for _, is := range it.Issues {
			_, _ = h.WriteString(is.Field + "\x00" + is.Message + "\x00")
		}
	}
	_ = enc.Encode(c)
	_ = enc.Encode(opts)
	_, _ = h.WriteString(now.Format(domain.DateLayout))
	return fmt.Sprintf("views:%s:%s:%s:%016x", projectID, kind, view, h.Sum64())
}
