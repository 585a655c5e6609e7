// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// PlanningStore is the persistence collaborator for tasks, budget line items
// and vendors. Implemented by the Supabase adapter and the REST client.
type PlanningStore interface {
	ListItems(ctx context.Context, projectID string, kind domain.ItemKind) ([]domain.PlanningItem, error)
	CreateItem(ctx context.Context, projectID string, item *domain.PlanningItem) (*domain.PlanningItem, error)
	UpdateItem(ctx context.Context, projectID string, kind domain.ItemKind, id domain.ItemID, patch map[string]any) (*domain.PlanningItem, error)
	DeleteItem(ctx context.Context, projectID string, kind domain.ItemKind, id domain.ItemID) error
}

// ProjectAccessChecker is implemented by stores that can tell whether the
// authenticated caller in ctx may open a project.
type ProjectAccessChecker interface {
	CanAccessProject(ctx context.Context, projectID string) (bool, error)
}

// SavedViewStore persists named criteria presets.
type SavedViewStore interface {
	ListSavedViews(ctx context.Context, projectID string) ([]domain.SavedView, error)
	GetSavedView(ctx context.Context, projectID, viewID string) (*domain.SavedView, error)
	ListSavedViewIDs(ctx context.Context, projectID string) ([]string, error)
	CreateSavedView(ctx context.Context, view *domain.SavedView) error
	DeleteSavedView(ctx context.Context, projectID, viewID string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// StaleCache is a Cache that can also hand back expired entries while they
// are still retained, and drop a whole key family at once.
type StaleCache[T any] interface {
	Cache[T]
	GetStale(key string) (T, bool)
	DeletePrefix(prefix string) int
}
