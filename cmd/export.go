package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cartx/internal/shared"
	"github.com/desertthunder/cartx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// exportOpts merges the export flags over the [export] config section.
func (r *Runner) exportOpts(cmd *cli.Command) tasks.ExportOpts {
	opts := tasks.ExportOpts{
		Format:     r.config.Export.Format,
		OutputDir:  r.config.Export.OutputDir,
		NumWorkers: r.config.Export.Workers,
		RateLimit:  r.config.Export.RateLimit,
	}
	if cmd.IsSet("format") {
		opts.Format = cmd.String("format")
	}
	if cmd.IsSet("output") {
		opts.OutputDir = cmd.String("output")
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}
	return opts
}

// Export writes the selected lists, or every list, to files in the output directory.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	opts := r.exportOpts(cmd)
	ids := cmd.StringSlice("id")

	r.logger.Info("starting export", "format", opts.Format, "lists", len(ids))

	progress, done := r.printProgress()
	result, err := r.engine.Export(ctx, progress, ids, opts)
	done()
	if err != nil && result == nil {
		return err
	}

	r.writePlainln("Exported %d of %s to %s", result.SuccessfulExports,
		shared.Pluralize(result.TotalLists, "list"), result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if err != nil {
		return err
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%w: %d lists failed to export", shared.ErrAPIRequest, result.FailedExports)
	}
	return nil
}
