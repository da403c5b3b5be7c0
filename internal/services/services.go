package services

import (
	"context"

	"github.com/desertthunder/cartx/internal/models"
)

// Lists is the list API used by the commands, the terminal UI and the export engine.
type Lists interface {
	All(ctx context.Context) ([]models.List, error)
	Get(ctx context.Context, id string) (*models.List, error)
	Create(ctx context.Context, list models.ListBase) (*models.List, error)
	Delete(ctx context.Context, id string) error
}

// Items is the item API used by the commands, the terminal UI and the export engine.
type Items interface {
	ByList(ctx context.Context, listID string) ([]models.Item, error)
	Create(ctx context.Context, item models.ItemBase) (*models.Item, error)
	Update(ctx context.Context, id string, update models.ItemUpdate) (*models.Item, error)
	Delete(ctx context.Context, id string) error
}
