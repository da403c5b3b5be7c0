package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cartx/internal/models"
)

// ItemRepository caches the items of lists. Items keep the order in which they were written.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new ItemRepository with the given database connection
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = "id, list_id, name, category, checked, price, unit, quantity, description"

// ByList returns the cached items of a list. The slice is empty, not nil, when there are none.
func (r *ItemRepository) ByList(ctx context.Context, listID string) ([]models.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE list_id = ? ORDER BY rowid ASC"

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// Upsert stores one item of a list that is already cached.
func (r *ItemRepository) Upsert(ctx context.Context, item models.Item, syncedAt time.Time) error {
	return upsertItem(ctx, r.db, item, syncedAt)
}

// replace swaps the cached items of listID for items within tx.
func (r *ItemRepository) replace(ctx context.Context, tx *sql.Tx, listID string, items []models.Item, syncedAt time.Time) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE list_id = ?", listID); err != nil {
		return fmt.Errorf("failed to clear items of %s: %w", listID, err)
	}

	for _, item := range items {
		item.ListID = listID
		if err := upsertItem(ctx, tx, item, syncedAt); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertItem(ctx context.Context, db execer, item models.Item, syncedAt time.Time) error {
	category := item.Category
	if category == "" {
		category = models.DefaultCategory
	}

	query := `
		INSERT INTO items (` + itemColumns + `, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			list_id = excluded.list_id,
			name = excluded.name,
			category = excluded.category,
			checked = excluded.checked,
			price = excluded.price,
			unit = excluded.unit,
			quantity = excluded.quantity,
			description = excluded.description,
			synced_at = excluded.synced_at
	`

	_, err := db.ExecContext(ctx, query,
		item.ID,
		item.ListID,
		item.Name,
		category,
		item.Checked,
		item.Price,
		item.Unit,
		item.Quantity,
		item.Description,
		syncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.ID, err)
	}
	return nil
}

func scanItem(s scanner) (models.Item, error) {
	var item models.Item
	err := s.Scan(
		&item.ID,
		&item.ListID,
		&item.Name,
		&item.Category,
		&item.Checked,
		&item.Price,
		&item.Unit,
		&item.Quantity,
		&item.Description,
	)
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to scan item: %w", err)
	}
	return item, nil
}
