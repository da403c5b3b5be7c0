package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
)

// ListSyncError records a list that could not be cached.
type ListSyncError struct {
	List  models.List
	Error error
}

// SyncResult summarizes a cache sync.
type SyncResult struct {
	Lists    int             // Lists returned by the backend
	Saved    int             // Lists written to the cache
	Items    int             // Items written to the cache
	Pruned   int             // Cached lists removed because the backend no longer has them
	Failed   []ListSyncError // Lists whose items could not be fetched or saved
	SyncedAt time.Time
}

// Sync pulls every list and its items into the cache.
//
// A list that fails keeps its previous cached copy. Pruning only removes lists the backend did not return, so a
// partial failure never deletes cached data.
func (e *ListEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if err := e.ready(); err != nil {
		return nil, fmt.Errorf("%w: list services not initialized", err)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: cache not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchingListsUpdate())
	lists, err := e.lists.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lists: %w", err)
	}
	e.sendProgress(progress, foundListsUpdate(lists))

	result := &SyncResult{Lists: len(lists), SyncedAt: e.now()}
	keep := make([]string, 0, len(lists))

	for i, list := range lists {
		keep = append(keep, list.ID)
		e.sendProgress(progress, fetchItemsUpdate(i+1, len(lists), list))

		export, err := e.syncList(ctx, list, result.SyncedAt)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			e.logger.Warn("list sync failed", "list", list.ID, "error", err)
			result.Failed = append(result.Failed, ListSyncError{List: list, Error: err})
			e.sendProgress(progress, syncFailedUpdate(i+1, len(lists), list, err))
			continue
		}

		result.Saved++
		result.Items += len(export.Items)
		e.sendProgress(progress, savedListUpdate(i+1, len(lists), export))
	}

	pruned, err := e.cache.Prune(ctx, keep)
	if err != nil {
		return result, fmt.Errorf("failed to prune cache: %w", err)
	}
	result.Pruned = pruned
	e.sendProgress(progress, pruneUpdate(pruned))

	e.logger.Debug("cache synced", "lists", result.Saved, "items", result.Items, "pruned", pruned)
	return result, nil
}

func (e *ListEngine) syncList(ctx context.Context, list models.List, syncedAt time.Time) (*models.ListExport, error) {
	items, err := e.items.ByList(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	export := &models.ListExport{List: list, Items: items, SyncedAt: syncedAt}
	if err := e.cache.Save(ctx, *export); err != nil {
		return nil, err
	}
	return export, nil
}
