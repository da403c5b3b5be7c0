package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/cartx/internal/formatter"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/desertthunder/cartx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// printProgress writes every update from progress until it is closed. The returned func closes the channel and
// waits for the printer to drain it.
func (r *Runner) printProgress() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 100)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()
	return progress, func() {
		close(progress)
		wg.Wait()
	}
}

func (r *Runner) cacheReady() error {
	if r.cache == nil {
		return fmt.Errorf("%w: local database not available, run 'cartx setup database'", shared.ErrServiceUnavailable)
	}
	return nil
}

// CacheSync mirrors every list and its items into the local database.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	if err := r.cacheReady(); err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	progress, done := r.printProgress()
	result, err := r.engine.Sync(ctx, progress)
	done()
	if err != nil {
		return err
	}

	r.writePlainln("Synced %s (%s), pruned %d",
		shared.Pluralize(result.Saved, "list"), shared.Pluralize(result.Items, "item"), result.Pruned)

	if len(result.Failed) > 0 {
		for _, f := range result.Failed {
			r.writePlain("  ✗ %s: %v\n", f.List.Name, f.Error)
		}
		return fmt.Errorf("%w: %d of %d lists failed to sync", shared.ErrAPIRequest, len(result.Failed), result.Lists)
	}
	return nil
}

// CacheLs prints the cached lists without contacting the backend.
func (r *Runner) CacheLs(ctx context.Context, cmd *cli.Command) error {
	if err := r.cacheReady(); err != nil {
		return err
	}

	lists, err := r.cache.All(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lists, true)
	}

	if len(lists) == 0 {
		return r.writePlain("Cache is empty. Run 'cartx cache sync'\n")
	}

	r.writePlainHeader("Cached lists")
	for _, l := range lists {
		r.writePlain("%-36s  %-24s  %d/%d left  synced %s\n",
			l.ID, l.Name, l.Remaining, l.Items, l.SyncedAt.Local().Format(time.DateTime))
	}
	return nil
}

// CacheShow prints a cached list as text.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.cacheReady(); err != nil {
		return err
	}

	export, err := r.cache.Get(ctx, id)
	if err != nil {
		return err
	}

	data, err := formatter.ExportToText(export)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}
