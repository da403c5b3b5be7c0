package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cartx/internal/formatter"
	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/services"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/urfave/cli/v3"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func (r *Runner) listsReady(ctx context.Context) error {
	if r.lists == nil || r.items == nil {
		return fmt.Errorf("%w: list services not initialized", shared.ErrServiceUnavailable)
	}
	return r.requireAuth(ctx)
}

// render returns export in format.
func render(export *models.ListExport, format string) ([]byte, error) {
	switch format {
	case formatter.FormatJSON:
		return formatter.ExportToJSON(export)
	case formatter.FormatCSV:
		return formatter.ExportToCSV(export)
	case formatter.FormatMarkdown:
		return formatter.ExportToMarkdown(export)
	case formatter.FormatText:
		return formatter.ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ListsLs prints the signed-in user's lists.
func (r *Runner) ListsLs(ctx context.Context, cmd *cli.Command) error {
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	lists, err := r.lists.All(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lists, true)
	}

	if len(lists) == 0 {
		return r.writePlain("No lists yet. Create one with 'cartx lists create <name>'\n")
	}

	r.writePlainHeader(fmt.Sprintf("Your lists (%s)", shared.Pluralize(len(lists), "list")))
	for _, list := range lists {
		r.writePlain("%-36s  %s\n", list.ID, list.Name)
	}
	return nil
}

// ListsShow prints a list with its items in the chosen format.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	if err := r.listsReady(ctx); err != nil {
		return err
	}

	export, err := services.Export(ctx, r.lists, r.items, id)
	if err != nil {
		return err
	}

	data, err := render(export, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if !cmd.Bool("link") && !cmd.Bool("open") {
		return nil
	}

	link, err := shared.JoinLink(r.config.API.BaseURL, id)
	if err != nil {
		return err
	}
	if cmd.Bool("link") {
		r.writePlainln("Share: %s", link)
	}
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(link); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}
	return nil
}

// ListsCreate creates a list and prints its id and join link.
func (r *Runner) ListsCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	list, err := r.lists.Create(ctx, models.ListBase{Name: name})
	if err != nil {
		return err
	}

	r.logger.Info("created list", "id", list.ID, "name", list.Name)
	r.writePlain("✓ Created %q (%s)\n", list.Name, list.ID)
	if link, err := shared.JoinLink(r.config.API.BaseURL, list.ID); err == nil {
		r.writePlain("Share: %s\n", link)
	}
	return nil
}

// ListsDelete deletes a list and drops its cached copy.
func (r *Runner) ListsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	if err := r.lists.Delete(ctx, id); err != nil {
		return err
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, id); err != nil {
			r.logger.Debug("list was not cached", "id", id, "error", err)
		}
	}

	return r.writePlain("✓ Deleted list %s\n", id)
}
