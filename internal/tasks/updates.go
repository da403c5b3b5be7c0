package tasks

import (
	"fmt"

	"github.com/desertthunder/cartx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLists Phase = iota
	FetchItems
	ExportList
	SaveCache
	PruneCache
)

func (p Phase) String() string {
	switch p {
	case FetchLists:
		return "fetch_lists"
	case FetchItems:
		return "fetch_items"
	case ExportList:
		return "export_list"
	case SaveCache:
		return "save_cache"
	case PruneCache:
		return "prune_cache"
	default:
		return ""
	}
}

func fetchingListsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLists,
		Step:    0,
		Total:   1,
		Message: "Fetching lists...",
	}
}

func foundListsUpdate(lists []models.List) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d lists", len(lists)),
		Data:    lists,
	}
}

func fetchItemsUpdate(step, total int, list models.List) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching items: %s...", step, total, list.Name),
	}
}

func savedListUpdate(step, total int, export *models.ListExport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveCache,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d items)", step, total, export.List.Name, len(export.Items)),
		Data:    export,
	}
}

func syncFailedUpdate(step, total int, list models.List, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveCache,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, list.Name, err),
	}
}

func pruneUpdate(removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneCache,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removed %d stale lists from cache", removed),
	}
}

func exportingListUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
