package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
)

// ListService implements [Lists] against the backend.
type ListService struct {
	api *APIService
}

func NewListService(api *APIService) *ListService {
	return &ListService{api: api}
}

// All returns every list of the signed-in user.
func (s *ListService) All(ctx context.Context) ([]models.List, error) {
	var lists []models.List
	if err := s.api.Do(ctx, http.MethodGet, "lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// Get returns one list.
func (s *ListService) Get(ctx context.Context, id string) (*models.List, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}

	var list models.List
	if err := s.api.Do(ctx, http.MethodGet, "lists/"+url.PathEscape(id), nil, &list); err != nil {
		if NotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
		}
		return nil, err
	}
	return &list, nil
}

// Create creates a list.
func (s *ListService) Create(ctx context.Context, list models.ListBase) (*models.List, error) {
	if err := list.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var created models.List
	if err := s.api.Do(ctx, http.MethodPost, "lists", list, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Delete removes a list.
func (s *ListService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}

	if err := s.api.Do(ctx, http.MethodDelete, "lists/"+url.PathEscape(id), nil, nil); err != nil {
		if NotFound(err) {
			return fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
		}
		return err
	}
	return nil
}

// Export fetches a list together with its items.
func Export(ctx context.Context, lists Lists, items Items, id string) (*models.ListExport, error) {
	list, err := lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := items.ByList(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ListExport{List: *list, Items: entries}, nil
}
