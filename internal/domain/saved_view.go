package domain

import "time"

// ============================================================
// Criteria & saved views
// ============================================================

// Criteria is the user-facing filter state for a planning view. Empty or
// "all" fields mean no filter. Values are treated as immutable once built.
type Criteria struct {
	Status        string `json:"status,omitempty"`
	Category      string `json:"category,omitempty"`
	Priority      string `json:"priority,omitempty"`
	SearchText    string `json:"search,omitempty"`
	DueWithinDays *int   `json:"dueWithinDays,omitempty"`
}

// SavedView is a named criteria preset stored per project.
type SavedView struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"projectId"`
	Name             string    `json:"name"`
	Kind             ItemKind  `json:"kind"`
	Criteria         Criteria  `json:"criteria"`
	ExcludeCompleted bool      `json:"excludeCompleted"`
	PerBucketStats   bool      `json:"perBucketStats"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CreateSavedViewRequest is the body of POST /saved-views.
type CreateSavedViewRequest struct {
	Name             string   `json:"name"`
	Kind             string   `json:"kind"`
	Criteria         Criteria `json:"criteria"`
	ExcludeCompleted bool     `json:"excludeCompleted"`
	PerBucketStats   bool     `json:"perBucketStats"`
}
