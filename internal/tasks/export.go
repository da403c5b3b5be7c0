package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/cartx/internal/formatter"
	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/services"
	"github.com/desertthunder/cartx/internal/shared"
	"golang.org/x/time/rate"
)

// ManifestFile is the name of the summary written to the output directory.
const ManifestFile = "export_manifest.json"

// ExportOpts contains configuration for bulk list exports.
type ExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: cartx_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Backend fetches per second (default: 5)
}

type exportJob struct {
	ListID string
	Export *models.ListExport
}

func (o ExportOpts) withDefaults(epoch int64) ExportOpts {
	if o.Format == "" {
		o.Format = formatter.FormatJSON
	}
	if o.OutputDir == "" {
		o.OutputDir = fmt.Sprintf("cartx_export_%d", epoch)
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = 5
	}
	if o.NumWorkers > 10 {
		o.NumWorkers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
	return o
}

// Export exports lists concurrently with rate limiting and progress tracking.
//
// Fetches run on one goroutine paced by the limiter and feed a pool of file writers. A list that fails to fetch
// or write is recorded in the result and the manifest; it does not stop the others.
func (e *ListEngine) Export(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	ids []string,
	opts ExportOpts,
) (*formatter.BulkExportResult, error) {
	if err := e.ready(); err != nil {
		return nil, fmt.Errorf("%w: list services not initialized", err)
	}

	opts = opts.withDefaults(e.now().Unix())
	if !formatter.ValidFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}

	if len(ids) == 0 {
		e.sendProgress(progress, fetchingListsUpdate())
		lists, err := e.lists.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch lists: %w", err)
		}
		e.sendProgress(progress, foundListsUpdate(lists))
		for _, l := range lists {
			ids = append(ids, l.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &formatter.BulkExportResult{
		TotalLists:      len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]formatter.ListExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan formatter.ListExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			export, err := services.Export(ctx, e.lists, e.items, id)
			if err != nil {
				results <- formatter.ListExportResult{
					ListID:   id,
					ListName: fmt.Sprintf("Unknown (%s)", id),
					Error:    fmt.Errorf("failed to fetch list: %w", err),
				}
				continue
			}
			export.SyncedAt = e.now()

			e.sendProgress(progress, exportingListUpdate(i+1, len(ids), export.List.Name))
			jobs <- exportJob{ListID: id, Export: export}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(progress, exportCompletedUpdate(completed, len(ids), res.ListName, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("list export failed", "list", res.ListID, "error", res.Error)
			e.sendProgress(progress, exportFailedUpdate(completed, len(ids), res.ListName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// exportWorker writes the lists it receives from jobs until the channel closes.
func (e *ListEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- formatter.ListExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			// Drain so the producer is never left blocked.
			continue
		}
		results <- exportSingleList(job, opts)
	}
}

// exportSingleList writes one list in the requested format.
func exportSingleList(j exportJob, opts ExportOpts) formatter.ListExportResult {
	result := formatter.ListExportResult{
		ListID:   j.ListID,
		ListName: j.Export.List.Name,
		Files:    []string{},
	}

	switch opts.Format {
	case formatter.FormatCSV:
		base := filepath.Join(opts.OutputDir, j.Export.List.ID)
		res, err := formatter.WriteCSVExport(j.Export, base)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{res.ItemsFile, res.MetadataFile}

	case formatter.FormatMarkdown:
		res, err := formatter.WriteMarkdownExport(j.Export, filepath.Join(opts.OutputDir, j.Export.List.ID))
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = res.Files

	case formatter.FormatText:
		path := filepath.Join(opts.OutputDir, j.Export.List.ID+"_items.txt")
		written, err := formatter.WriteTextExport(j.Export, path)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{written}

	default:
		path := filepath.Join(opts.OutputDir, j.Export.List.ID+".json")
		written, err := formatter.WriteJSONExport(j.Export, path)
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{written}
	}

	result.Success = true
	return result
}
