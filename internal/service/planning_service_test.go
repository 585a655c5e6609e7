package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/cache"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/infra/observability"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/planning"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/service"
)

// --- Fakes ---

type fakeStore struct {
	mu      sync.Mutex
	items   map[domain.ItemKind][]domain.PlanningItem
	err     error
	lists   int
	created []domain.PlanningItem
	patches []map[string]any
	deleted []domain.ItemID
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[domain.ItemKind][]domain.PlanningItem)}
}

func (f *fakeStore) ListItems(_ context.Context, _ string, kind domain.ItemKind) ([]domain.PlanningItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.PlanningItem, len(f.items[kind]))
	copy(out, f.items[kind])
	return out, nil
}

func (f *fakeStore) CreateItem(_ context.Context, _ string, item *domain.PlanningItem) (*domain.PlanningItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, *item)
	f.items[item.Kind] = append(f.items[item.Kind], *item)
	out := *item
	return &out, nil
}

func (f *fakeStore) UpdateItem(_ context.Context, _ string, kind domain.ItemKind, id domain.ItemID, patch map[string]any) (*domain.PlanningItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.patches = append(f.patches, patch)
	for i, it := range f.items[kind] {
		if it.ID == id {
			if title, ok := patch["title"].(string); ok {
				f.items[kind][i].Title = title
			}
			out := f.items[kind][i]
			return &out, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "item", ID: id.String()}
}

func (f *fakeStore) DeleteItem(_ context.Context, _ string, kind domain.ItemKind, id domain.ItemID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	kept := f.items[kind][:0]
	for _, it := range f.items[kind] {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	f.items[kind] = kept
	return nil
}

func (f *fakeStore) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeStore) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// --- Helpers ---

var fixedNow = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func due(days int) *time.Time {
	t := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return &t
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func timelineItems() []domain.PlanningItem {
	return []domain.PlanningItem{
		{ID: domain.IntID(1), Kind: domain.KindTask, Title: "Book venue", Status: domain.StatusPending, Priority: domain.PriorityHigh, DueDate: due(-2)},
		{ID: domain.IntID(2), Kind: domain.KindTask, Title: "Send invites", Status: domain.StatusCompleted, DueDate: due(3)},
		{ID: domain.IntID(3), Kind: domain.KindTask, Title: "Order cake", Status: domain.StatusPending, DueDate: due(20)},
		{ID: domain.IntID(4), Kind: domain.KindTask, Title: "Choose music", Status: domain.StatusInProgress},
	}
}

func newService(t *testing.T, store *fakeStore, ttl time.Duration) (*service.PlanningService, *observability.Metrics) {
	t.Helper()
	items := cache.New[[]domain.PlanningItem](ttl, cache.WithStaleRetention(time.Hour))
	views := cache.New[any](ttl)
	t.Cleanup(items.Close)
	t.Cleanup(views.Close)
	metrics := observability.NewMetrics()
	svc := service.NewPlanningService(store, items, views, metrics, zap.NewNop(),
		service.WithClock(func() time.Time { return fixedNow }),
	)
	return svc, metrics
}

func bucketIDs(b *planning.Bucket) []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.Items))
	for _, it := range b.Items {
		out = append(out, it.ID.String())
	}
	return out
}

// --- Tests ---

func TestTimeline_BucketsProjectItems(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, _ := newService(t, store, time.Minute)

	view, err := svc.Timeline(context.Background(), "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)

	assert.Equal(t, "2026-06-15", view.ReferenceDate)
	assert.Equal(t, []string{"1"}, bucketIDs(view.Find(planning.BucketOverdue)))
	assert.Equal(t, []string{"3"}, bucketIDs(view.Find(planning.BucketThisMonth)))
	assert.Equal(t, []string{"4"}, bucketIDs(view.Find(planning.BucketNoDueDate)))
	assert.Equal(t, []string{"2"}, bucketIDs(view.Find(planning.BucketCompleted)))
	assert.Equal(t, 4, view.Overall.Total)
	assert.Equal(t, 1, view.Overall.Completed)
	assert.Equal(t, 1, view.Overall.Overdue)
}

func TestTimeline_CachesItemsAndViews(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, metrics := newService(t, store, time.Minute)
	ctx := context.Background()

	first, err := svc.Timeline(ctx, "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)
	second, err := svc.Timeline(ctx, "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.listCalls())

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ViewsBuilt)
	assert.InDelta(t, 0.5, snap.ViewsCacheHit, 1e-9)
}

func TestTimeline_DifferentCriteriaMissViewCache(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, _ := newService(t, store, time.Minute)
	ctx := context.Background()

	all, err := svc.Timeline(ctx, "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)
	pending, err := svc.Timeline(ctx, "p1", service.ViewRequest{
		Kind:     domain.KindTask,
		Criteria: planning.Criteria{Status: "pending"},
		Options:  planning.Options{ExcludeCompleted: true},
	})
	require.NoError(t, err)

	assert.NotSame(t, all, pending)
	assert.Equal(t, 2, pending.Overall.Total)
	assert.Nil(t, pending.Find(planning.BucketCompleted))
}

func TestTimeline_PinnedDate(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, _ := newService(t, store, time.Minute)

	asOf, err := svc.ParseReferenceDate("2026-07-10")
	require.NoError(t, err)
	view, err := svc.Timeline(context.Background(), "p1", service.ViewRequest{Kind: domain.KindTask, AsOf: asOf})
	require.NoError(t, err)

	assert.Equal(t, "2026-07-10", view.ReferenceDate)
	// Order cake was due 2026-07-05.
	assert.Equal(t, []string{"1", "3"}, bucketIDs(view.Find(planning.BucketOverdue)))

	_, err = svc.ParseReferenceDate("next tuesday")
	var cv *domain.ErrContractViolation
	assert.ErrorAs(t, err, &cv)
}

func TestTimeline_ServesStaleItemsOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, metrics := newService(t, store, 5*time.Millisecond)
	ctx := context.Background()

	_, err := svc.Timeline(ctx, "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	store.fail(&domain.ErrExternalService{Service: "planning-api", Err: errors.New("boom")})

	view, err := svc.Timeline(ctx, "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)
	assert.Equal(t, 4, view.Overall.Total)
	assert.Equal(t, int64(1), metrics.Snapshot().ExternalErrors)
}

func TestTimeline_StoreFailureWithoutSnapshot(t *testing.T) {
	store := newFakeStore()
	store.fail(&domain.ErrExternalService{Service: "planning-api", Err: errors.New("boom")})
	svc, _ := newService(t, store, time.Minute)

	_, err := svc.Timeline(context.Background(), "p1", service.ViewRequest{Kind: domain.KindTask})
	var ext *domain.ErrExternalService
	require.ErrorAs(t, err, &ext)
}

func TestTimeline_UnknownKind(t *testing.T) {
	svc, _ := newService(t, newFakeStore(), time.Minute)

	for _, kind := range []domain.ItemKind{"", "guest", "tasks"} {
		_, err := svc.Timeline(context.Background(), "p1", service.ViewRequest{Kind: kind})
		var ve *domain.ErrValidation
		assert.ErrorAs(t, err, &ve, "kind %q", kind)
	}
}

func TestTimeline_CountsDataWarnings(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = []domain.PlanningItem{
		{ID: domain.IntID(1), Kind: domain.KindTask, Title: "a", Status: domain.StatusPending,
			Issues: []domain.DataIssue{{Field: "dueDate", Message: "unparseable"}}},
		{ID: domain.IntID(1), Kind: domain.KindTask, Title: "b", Status: domain.StatusPending},
	}
	svc, metrics := newService(t, store, time.Minute)

	view, err := svc.Timeline(context.Background(), "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)
	assert.Len(t, view.Warnings, 2)
	assert.Equal(t, int64(2), metrics.Snapshot().DataWarnings)
}

func TestTimeframes_UsesConfiguredLabels(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = []domain.PlanningItem{
		{ID: domain.IntID(1), Kind: domain.KindTask, Title: "Dress fitting", Status: domain.StatusPending, Timeframe: "1-2 months before"},
		{ID: domain.IntID(2), Kind: domain.KindTask, Title: "Book venue", Status: domain.StatusPending, Timeframe: "12+ months before"},
		{ID: domain.IntID(3), Kind: domain.KindTask, Title: "Thank-you cards", Status: domain.StatusPending},
	}
	items := cache.New[[]domain.PlanningItem](time.Minute)
	views := cache.New[any](time.Minute)
	t.Cleanup(items.Close)
	t.Cleanup(views.Close)
	table := planning.NewTimeframeTable([]string{"12+ months before", "1-2 months before"})
	svc := service.NewPlanningService(store, items, views, observability.NewMetrics(), zap.NewNop(),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithTimeframes(table),
	)

	view, err := svc.Timeframes(context.Background(), "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)

	labels := make([]string, 0, len(view.Groups))
	for _, g := range view.Groups {
		labels = append(labels, g.Label)
	}
	assert.Equal(t, []string{"12+ months before", "1-2 months before", planning.UnscheduledLabel}, labels)
	assert.Equal(t, table.Labels(), svc.TimeframeLabels())
}

func TestSummary_Budget(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindBudget] = []domain.PlanningItem{
		{ID: domain.IntID(1), Kind: domain.KindBudget, Title: "Venue deposit", Category: "Venue", Status: domain.StatusPaid,
			EstimatedCost: money("6000"), ActualCost: money("6000")},
		{ID: domain.IntID(2), Kind: domain.KindBudget, Title: "Flowers", Category: "Florist",
			EstimatedCost: money("800")},
	}
	svc, _ := newService(t, store, time.Minute)

	st, err := svc.Summary(context.Background(), "p1", domain.KindBudget, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 2, st.Total)
	assert.True(t, st.TotalEstimated.Equal(decimal.RequireFromString("6800")))
	assert.True(t, st.TotalActual.Equal(decimal.RequireFromString("6000")))
	assert.Equal(t, planning.SpendUnder, st.ByCategory["Venue"].Status)
	// Kind defaults fill the missing status.
	assert.Equal(t, 1, st.ByStatus[string(domain.StatusUnpaid)])
}

func TestDashboard_SummarizesEveryKind(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	store.items[domain.KindVendor] = []domain.PlanningItem{
		{ID: domain.IntID(9), Kind: domain.KindVendor, Title: "Photographer", Status: domain.StatusBooked},
	}
	svc, _ := newService(t, store, time.Minute)

	d, err := svc.Dashboard(context.Background(), "p1", time.Time{})
	require.NoError(t, err)

	require.Len(t, d.Kinds, 3)
	assert.Equal(t, 4, d.Kinds[domain.KindTask].Total)
	assert.Equal(t, 0, d.Kinds[domain.KindBudget].Total)
	assert.Equal(t, 100, d.Kinds[domain.KindVendor].CompletionRatePercent)
	assert.Equal(t, 3, store.listCalls())
}

func TestDashboard_FailsWhenAKindFails(t *testing.T) {
	store := newFakeStore()
	store.fail(errors.New("connection refused"))
	svc, _ := newService(t, store, time.Minute)

	_, err := svc.Dashboard(context.Background(), "p1", time.Time{})
	assert.Error(t, err)
}

func TestDashboard_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc, _ := newService(t, newFakeStore(), time.Minute)
	_, err := svc.Dashboard(ctx, "p1", time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateItem_AssignsIDAndInvalidates(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, _ := newService(t, store, time.Minute)
	ctx := context.Background()

	_, err := svc.Timeline(ctx, "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)

	created, err := svc.CreateItem(ctx, "p1", &domain.PlanningItem{Kind: domain.KindTask, Title: "Hire DJ"})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.False(t, created.ID.IsNumeric())
	assert.Equal(t, domain.StatusPending, created.Status)

	view, err := svc.Timeline(ctx, "p1", service.ViewRequest{Kind: domain.KindTask})
	require.NoError(t, err)
	assert.Equal(t, 5, view.Overall.Total)
	assert.Equal(t, 2, store.listCalls())
}

func TestCreateItem_Validation(t *testing.T) {
	svc, _ := newService(t, newFakeStore(), time.Minute)
	ctx := context.Background()

	cases := []struct {
		name  string
		item  *domain.PlanningItem
		field string
	}{
		{"nil", nil, "item"},
		{"no kind", &domain.PlanningItem{Title: "x"}, "kind"},
		{"blank title", &domain.PlanningItem{Kind: domain.KindVendor, Title: "  "}, "title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, "p1", tc.item)
			var ve *domain.ErrValidation
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestUpdateItem(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, _ := newService(t, store, time.Minute)
	ctx := context.Background()

	updated, err := svc.UpdateItem(ctx, "p1", domain.KindTask, domain.IntID(3), map[string]any{"title": "Order cake + topper"})
	require.NoError(t, err)
	assert.Equal(t, "Order cake + topper", updated.Title)

	_, err = svc.UpdateItem(ctx, "p1", domain.KindTask, domain.IntID(3), map[string]any{"projectId": "p2"})
	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "projectId", ve.Field)

	_, err = svc.UpdateItem(ctx, "p1", domain.KindTask, domain.IntID(3), map[string]any{})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.UpdateItem(ctx, "p1", domain.KindTask, domain.IntID(3), map[string]any{"title": ""})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.UpdateItem(ctx, "p1", domain.KindTask, domain.IntID(99), map[string]any{"notes": "x"})
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
	assert.Len(t, store.patches, 2)
}

func TestDeleteItem(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, _ := newService(t, store, time.Minute)
	ctx := context.Background()

	items, err := svc.ListItems(ctx, "p1", domain.KindTask)
	require.NoError(t, err)
	require.Len(t, items, 4)

	require.NoError(t, svc.DeleteItem(ctx, "p1", domain.KindTask, domain.IntID(2)))

	items, err = svc.ListItems(ctx, "p1", domain.KindTask)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, []domain.ItemID{domain.IntID(2)}, store.deleted)
}

func TestBuildStateless(t *testing.T) {
	svc, metrics := newService(t, newFakeStore(), time.Minute)

	view, err := svc.BuildStateless(context.Background(), timelineItems(), planning.Criteria{}, time.Time{}, planning.Options{PerBucketStats: true})
	require.NoError(t, err)
	require.NotEmpty(t, view.Buckets)
	for _, b := range view.Buckets {
		assert.NotNil(t, b.Stats, b.Key)
	}
	assert.Equal(t, int64(1), metrics.Snapshot().ViewsBuilt)
}

func TestCreateItem_RejectsRecordsWithIssues(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(t, store, time.Minute)

	_, err := svc.CreateItem(context.Background(), "p1", &domain.PlanningItem{
		Kind:   domain.KindTask,
		Title:  "Cake",
		Issues: []domain.DataIssue{{Field: "dueDate", Message: "unrecognized date"}},
	})
	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "dueDate", ve.Field)
	assert.Empty(t, store.created)
}

func TestUpdateItem_RejectsMalformedValues(t *testing.T) {
	cases := []struct {
		name  string
		patch map[string]any
		field string
	}{
		{"negative cost", map[string]any{"estimatedCost": -500.0}, "estimatedCost"},
		{"text cost", map[string]any{"actualCost": "abc"}, "actualCost"},
		{"free-form date", map[string]any{"dueDate": "next tuesday"}, "dueDate"},
		{"unknown priority", map[string]any{"priority": "urgent"}, "priority"},
		{"unknown status", map[string]any{"status": "someday"}, "status"},
		{"structured notes", map[string]any{"notes": []any{"a", "b"}}, "notes"},
		{"bad flag", map[string]any{"isPaid": "perhaps"}, "isPaid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			store.items[domain.KindBudget] = []domain.PlanningItem{{ID: domain.IntID(1), Kind: domain.KindBudget, Title: "Venue"}}
			svc, _ := newService(t, store, time.Minute)

			_, err := svc.UpdateItem(context.Background(), "p1", domain.KindBudget, domain.IntID(1), tc.patch)
			var ve *domain.ErrValidation
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.Empty(t, store.patches)
		})
	}
}

func TestUpdateItem_AcceptsWellFormedValues(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindBudget] = []domain.PlanningItem{{ID: domain.IntID(1), Kind: domain.KindBudget, Title: "Venue"}}
	svc, _ := newService(t, store, time.Minute)

	_, err := svc.UpdateItem(context.Background(), "p1", domain.KindBudget, domain.IntID(1), map[string]any{
		"estimatedCost": "6000.50",
		"actualCost":    6000.0,
		"dueDate":       "2026-07-01",
		"priority":      "HIGH",
		"status":        "in progress",
		"isPaid":        true,
		"notes":         "deposit sent",
	})
	require.NoError(t, err)
	assert.Len(t, store.patches, 1)
}

// ownedStore answers project access from a project -> subject table.
type ownedStore struct {
	*fakeStore
	owners map[string]string
	checks int
	err    error
}

func (o *ownedStore) CanAccessProject(ctx context.Context, projectID string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checks++
	if o.err != nil {
		return false, o.err
	}
	caller, _ := domain.CallerFromContext(ctx)
	return o.owners[projectID] == caller.Subject, nil
}

func newOwnedService(t *testing.T, store *ownedStore) *service.PlanningService {
	t.Helper()
	items := cache.New[[]domain.PlanningItem](time.Minute, cache.WithStaleRetention(time.Hour))
	views := cache.New[any](time.Minute)
	t.Cleanup(items.Close)
	t.Cleanup(views.Close)
	return service.NewPlanningService(store, items, views, observability.NewMetrics(), zap.NewNop(),
		service.WithClock(func() time.Time { return fixedNow }),
	)
}

func TestAuthorizeProject(t *testing.T) {
	store := &ownedStore{fakeStore: newFakeStore(), owners: map[string]string{"p1": "alice", "p2": "bob"}}
	svc := newOwnedService(t, store)
	alice := domain.WithCaller(context.Background(), domain.Caller{Subject: "alice", Token: "t-alice"})

	require.NoError(t, svc.AuthorizeProject(alice, "p1"))
	require.NoError(t, svc.AuthorizeProject(alice, "p1"))

	err := svc.AuthorizeProject(alice, "p2")
	var fe *domain.ErrForbidden
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "p2", fe.ID)

	// Denials are cached too.
	require.ErrorAs(t, svc.AuthorizeProject(alice, "p2"), &fe)
	assert.Equal(t, 2, store.checks)

	// Anonymous requests are not checked.
	require.NoError(t, svc.AuthorizeProject(context.Background(), "p2"))
	assert.Equal(t, 2, store.checks)
}

func TestAuthorizeProject_CheckerFailure(t *testing.T) {
	store := &ownedStore{fakeStore: newFakeStore(), err: errors.New("connection refused")}
	svc := newOwnedService(t, store)
	ctx := domain.WithCaller(context.Background(), domain.Caller{Subject: "alice"})

	err := svc.AuthorizeProject(ctx, "p1")
	require.Error(t, err)
	var fe *domain.ErrForbidden
	assert.False(t, errors.As(err, &fe))

	// Failures are not cached.
	store.err = nil
	store.owners = map[string]string{"p1": "alice"}
	require.NoError(t, svc.AuthorizeProject(ctx, "p1"))
	assert.Equal(t, 2, store.checks)
}

func TestAuthorizeProject_StoreWithoutCheckerAllows(t *testing.T) {
	svc, _ := newService(t, newFakeStore(), time.Minute)
	ctx := domain.WithCaller(context.Background(), domain.Caller{Subject: "alice"})
	assert.NoError(t, svc.AuthorizeProject(ctx, "p1"))
}

func TestListItems_SnapshotsAreScopedToCaller(t *testing.T) {
	store := newFakeStore()
	store.items[domain.KindTask] = timelineItems()
	svc, _ := newService(t, store, time.Minute)
	alice := domain.WithCaller(context.Background(), domain.Caller{Subject: "alice"})
	bob := domain.WithCaller(context.Background(), domain.Caller{Subject: "bob"})

	_, err := svc.ListItems(alice, "p1", domain.KindTask)
	require.NoError(t, err)
	_, err = svc.ListItems(alice, "p1", domain.KindTask)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls())

	_, err = svc.ListItems(bob, "p1", domain.KindTask)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls())

	// A write by one caller drops every caller's snapshot of the project.
	require.NoError(t, svc.DeleteItem(bob, "p1", domain.KindTask, domain.IntID(4)))
	items, err := svc.ListItems(alice, "p1", domain.KindTask)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
