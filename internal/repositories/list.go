package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
)

// CachedList is a row of the list cache with its item counts.
type CachedList struct {
	models.List
	Items     int
	Remaining int
	SyncedAt  time.Time
}

// ListRepository caches lists together with their items.
type ListRepository struct {
	db    *sql.DB
	items *ItemRepository
}

// NewListRepository creates a new ListRepository with the given database connection
func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{db: db, items: NewItemRepository(db)}
}

// Save stores a list and replaces its cached items in one transaction. A zero SyncedAt is stamped with the
// current time.
func (r *ListRepository) Save(ctx context.Context, export models.ListExport) error {
	syncedAt := export.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO lists (id, name, synced_at)
			VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				synced_at = excluded.synced_at
		`
		if _, err := tx.ExecContext(ctx, query, export.List.ID, export.List.Name, syncedAt); err != nil {
			return fmt.Errorf("failed to save list %s: %w", export.List.ID, err)
		}
		return r.items.replace(ctx, tx, export.List.ID, export.Items, syncedAt)
	})
}

// All returns every cached list ordered by name.
func (r *ListRepository) All(ctx context.Context) ([]CachedList, error) {
	query := `
		SELECT l.id, l.name, l.synced_at,
			COUNT(i.id),
			COALESCE(SUM(CASE WHEN i.checked = 0 THEN 1 ELSE 0 END), 0)
		FROM lists l
		LEFT JOIN items i ON i.list_id = l.id
		GROUP BY l.id, l.name, l.synced_at
		ORDER BY l.name COLLATE NOCASE ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var lists []CachedList
	for rows.Next() {
		var l CachedList
		if err := rows.Scan(&l.ID, &l.Name, &l.SyncedAt, &l.Items, &l.Remaining); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lists, nil
}

// Get returns a cached list with its items.
func (r *ListRepository) Get(ctx context.Context, id string) (*models.ListExport, error) {
	export := &models.ListExport{}

	row := r.db.QueryRowContext(ctx, "SELECT id, name, synced_at FROM lists WHERE id = ?", id)
	err := row.Scan(&export.List.ID, &export.List.Name, &export.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan list: %w", err)
	}

	if export.Items, err = r.items.ByList(ctx, id); err != nil {
		return nil, err
	}
	return export, nil
}

// Delete removes a cached list and its items.
func (r *ListRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
	}

	return nil
}

// Prune removes cached lists whose id is not in keep and returns how many were removed.
func (r *ListRepository) Prune(ctx context.Context, keep []string) (int, error) {
	query := "DELETE FROM lists"
	args := make([]any, 0, len(keep))
	if len(keep) > 0 {
		query += " WHERE id NOT IN (?" + strings.Repeat(", ?", len(keep)-1) + ")"
		for _, id := range keep {
			args = append(args, id)
		}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune lists: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
