package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
)

// ItemService implements [Items] and the list-level item actions.
type ItemService struct {
	api *APIService
}

func NewItemService(api *APIService) *ItemService {
	return &ItemService{api: api}
}

// ByList returns the items of a list.
func (s *ItemService) ByList(ctx context.Context, listID string) ([]models.Item, error) {
	if listID == "" {
		return nil, fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}

	var items []models.Item
	if err := s.api.Do(ctx, http.MethodGet, "items/all/"+url.PathEscape(listID), nil, &items); err != nil {
		if NotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrListNotFound, listID)
		}
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// Create adds an item.
func (s *ItemService) Create(ctx context.Context, item models.ItemBase) (*models.Item, error) {
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var created models.Item
	if err := s.api.Do(ctx, http.MethodPost, "items", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update applies a partial update to an item.
func (s *ItemService) Update(ctx context.Context, id string, update models.ItemUpdate) (*models.Item, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: item id", shared.ErrMissingArgument)
	}
	if update.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}
	if err := update.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var updated models.Item
	if err := s.api.Do(ctx, http.MethodPut, "items/"+url.PathEscape(id), update, &updated); err != nil {
		if NotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes an item.
func (s *ItemService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: item id", shared.ErrMissingArgument)
	}

	if err := s.api.Do(ctx, http.MethodDelete, "items/"+url.PathEscape(id), nil, nil); err != nil {
		if NotFound(err) {
			return fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
		}
		return err
	}
	return nil
}

// AddByName bumps the quantity of the item named name, matched case-insensitively, or creates it with a
// category from the category table. created reports which happened.
func (s *ItemService) AddByName(ctx context.Context, listID, name string) (item *models.Item, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("%w: item name", shared.ErrMissingArgument)
	}

	items, err := s.ByList(ctx, listID)
	if err != nil {
		return nil, false, err
	}

	if existing, ok := models.FindByName(items, name); ok {
		item, err = s.Update(ctx, existing.ID, models.ItemUpdate{Quantity: models.Ptr(existing.Quantity + 1)})
		return item, false, err
	}

	item, err = s.Create(ctx, models.NewItem(listID, name))
	return item, err == nil, err
}

// RemoveByName decrements the quantity of the item named name, deleting it once the quantity would drop below
// one. deleted reports whether the item was removed.
func (s *ItemService) RemoveByName(ctx context.Context, listID, name string) (item *models.Item, deleted bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("%w: item name", shared.ErrMissingArgument)
	}

	items, err := s.ByList(ctx, listID)
	if err != nil {
		return nil, false, err
	}

	existing, ok := models.FindByName(items, name)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", shared.ErrItemNotFound, name)
	}

	if existing.Quantity > 1 {
		item, err = s.Update(ctx, existing.ID, models.ItemUpdate{Quantity: models.Ptr(existing.Quantity - 1)})
		return item, false, err
	}

	if err := s.Delete(ctx, existing.ID); err != nil {
		return nil, false, err
	}
	return &existing, true, nil
}

// Toggle flips the checked state of item.
func (s *ItemService) Toggle(ctx context.Context, item models.Item) (*models.Item, error) {
	return s.Update(ctx, item.ID, models.ItemUpdate{Checked: models.Ptr(!item.Checked)})
}

// SetChecked sets the checked state of the item named name.
func (s *ItemService) SetChecked(ctx context.Context, listID, name string, checked bool) (*models.Item, error) {
	items, err := s.ByList(ctx, listID)
	if err != nil {
		return nil, err
	}

	existing, ok := models.FindByName(items, name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrItemNotFound, name)
	}
	if existing.Checked == checked {
		return &existing, nil
	}
	return s.Update(ctx, existing.ID, models.ItemUpdate{Checked: models.Ptr(checked)})
}

// UncheckAll unchecks every checked item of a list and returns how many were changed. It carries on past
// failures and returns them joined.
func (s *ItemService) UncheckAll(ctx context.Context, listID string) (int, error) {
	items, err := s.ByList(ctx, listID)
	if err != nil {
		return 0, err
	}

	var (
		changed int
		errs    []error
	)
	for _, item := range items {
		if !item.Checked {
			continue
		}
		if _, err := s.Update(ctx, item.ID, models.ItemUpdate{Checked: models.Ptr(false)}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.Name, err))
			continue
		}
		changed++
	}
	return changed, errors.Join(errs...)
}
