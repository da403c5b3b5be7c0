// package tasks implements list export and cache synchronization.
package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cartx/internal/formatter"
	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/services"
	"github.com/desertthunder/cartx/internal/shared"
)

// ExportEngine exports lists to files.
type ExportEngine interface {
	// Export writes each list in ids to opts.OutputDir. An empty ids exports every list.
	Export(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts ExportOpts) (*formatter.BulkExportResult, error)
}

// SyncEngine mirrors the backend's lists into the local cache.
type SyncEngine interface {
	Sync(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)
}

// Cache is the local store the sync engine writes to (repositories.ListRepository).
type Cache interface {
	Save(ctx context.Context, export models.ListExport) error
	Prune(ctx context.Context, keep []string) (int, error)
}

// ListEngine implements [ExportEngine] and [SyncEngine] on top of the list and item services.
type ListEngine struct {
	lists  services.Lists
	items  services.Items
	cache  Cache
	logger *log.Logger
	now    func() time.Time
}

// NewListEngine creates a ListEngine. cache may be nil when only exports are needed.
func NewListEngine(lists services.Lists, items services.Items, cache Cache, logger *log.Logger) *ListEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &ListEngine{
		lists:  lists,
		items:  items,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ListEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func (e *ListEngine) ready() error {
	if e.lists == nil || e.items == nil {
		return shared.ErrServiceUnavailable
	}
	return nil
}
