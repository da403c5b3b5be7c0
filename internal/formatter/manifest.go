package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/cartx/internal/shared"
)

// ListExportResult is the outcome of exporting one list.
type ListExportResult struct {
	ListID   string
	ListName string
	Success  bool
	Files    []string
	Error    error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalLists        int
	SuccessfulExports int
	FailedExports     int
	Results           []ListExportResult
	OutputDirectory   string
	ManifestPath      string
}

// ManifestEntry records the outcome for one list.
type ManifestEntry struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Files  []string `json:"files,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// ExportManifest is the JSON document written next to a bulk export.
type ExportManifest struct {
	Format            string          `json:"format"`
	ExportedAt        time.Time       `json:"exported_at"`
	TotalLists        int             `json:"total_lists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	OutputDirectory   string          `json:"output_directory"`
	Lists             []ManifestEntry `json:"lists"`
}

// WriteBulkExportManifest writes a JSON summary of result to path.
func WriteBulkExportManifest(result *BulkExportResult, format, path string) error {
	m := ExportManifest{
		Format:            format,
		ExportedAt:        time.Now().UTC(),
		TotalLists:        result.TotalLists,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		OutputDirectory:   result.OutputDirectory,
		Lists:             make([]ManifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := ManifestEntry{ID: res.ListID, Name: res.ListName, Status: "success", Files: res.Files}
		if !res.Success {
			entry.Status = "failed"
			if res.Error != nil {
				entry.Error = res.Error.Error()
			}
		}
		m.Lists = append(m.Lists, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
