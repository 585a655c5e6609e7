package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// SavedViewStore implements port.SavedViewStore on SQLite.
type SavedViewStore struct {
	db *sql.DB
}

// NewSavedViewStore wraps an opened database.
func NewSavedViewStore(db *sql.DB) *SavedViewStore {
	return &SavedViewStore{db: db}
}

const savedViewColumns = `id, project_id, name, kind, criteria, exclude_completed, per_bucket_stats, created_at`

func (s *SavedViewStore) ListSavedViews(ctx context.Context, projectID string) ([]domain.SavedView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+savedViewColumns+` FROM saved_views WHERE project_id = ? ORDER BY created_at, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("listing saved views: %w", err)
	}
	defer rows.Close()

	views := make([]domain.SavedView, 0)
	for rows.Next() {
		v, err := scanSavedView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

func (s *SavedViewStore) GetSavedView(ctx context.Context, projectID, viewID string) (*domain.SavedView, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+savedViewColumns+` FROM saved_views WHERE project_id = ? AND id = ?`,
		projectID, viewID)
	v, err := scanSavedView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "saved view", ID: viewID}
	}
	return v, err
}

func (s *SavedViewStore) ListSavedViewIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM saved_views WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing saved view ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning saved view id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SavedViewStore) CreateSavedView(ctx context.Context, v *domain.SavedView) error {
	criteria, err := json.Marshal(v.Criteria)
	if err != nil {
		return fmt.Errorf("encoding criteria: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_views (`+savedViewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.ProjectID, v.Name, string(v.Kind), string(criteria),
		boolToInt(v.ExcludeCompleted), boolToInt(v.PerBucketStats),
		v.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &domain.ErrConflict{Message: fmt.Sprintf("saved view %q already exists", v.ID)}
		}
		return fmt.Errorf("inserting saved view: %w", err)
	}
	return nil
}

func (s *SavedViewStore) DeleteSavedView(ctx context.Context, projectID, viewID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE project_id = ? AND id = ?`, projectID, viewID)
	if err != nil {
		return fmt.Errorf("deleting saved view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: "saved view", ID: viewID}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSavedView(row scanner) (*domain.SavedView, error) {
	var (
		v                 domain.SavedView
		kind, criteria    string
		createdAt         string
		exclude, perStats int
	)
	if err := row.Scan(&v.ID, &v.ProjectID, &v.Name, &kind, &criteria, &exclude, &perStats, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning saved view: %w", err)
	}
	if err := json.Unmarshal([]byte(criteria), &v.Criteria); err != nil {
		return nil, fmt.Errorf("decoding criteria for %s: %w", v.ID, err)
	}
	v.Kind = domain.ItemKind(kind)
	v.ExcludeCompleted = exclude != 0
	v.PerBucketStats = perStats != 0
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		v.CreatedAt = t
	}
	return &v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
