package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cartx/internal/formatter"
	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/urfave/cli/v3"
)

// byName reads the list-id and name arguments shared by the name-addressed item commands.
func byName(cmd *cli.Command) (listID, name string, err error) {
	if listID, err = requireArg(cmd, "list-id"); err != nil {
		return "", "", err
	}
	if name, err = requireArg(cmd, "name"); err != nil {
		return "", "", err
	}
	return listID, name, nil
}

func (r *Runner) writeItem(item models.Item) {
	mark := " "
	if item.Checked {
		mark = "x"
	}
	line := fmt.Sprintf("  [%s] %-24s %-8s", mark, item.Name, formatter.FormatQuantity(item))
	if price := formatter.FormatPrice(item.Price); price != "" {
		line += "  " + price
	}
	r.writePlain("%s\n", line)
}

// ItemsLs prints the items of a list grouped by category.
func (r *Runner) ItemsLs(ctx context.Context, cmd *cli.Command) error {
	listID, err := requireArg(cmd, "list-id")
	if err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	items, err := r.items.ByList(ctx, listID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	if len(items) == 0 {
		return r.writePlain("No items yet. Add one with 'cartx items add %s <name>'\n", listID)
	}

	remaining := models.ListExport{Items: items}.Remaining()
	r.writePlain("%s, %d left to buy\n", shared.Pluralize(len(items), "item"), remaining)
	for _, group := range models.GroupByCategory(items) {
		r.writePlainln("%s", group.Category)
		for _, item := range group.Items {
			r.writeItem(item)
		}
	}
	return nil
}

// ItemsAdd adds an item by name or bumps the quantity of the one already on the list.
func (r *Runner) ItemsAdd(ctx context.Context, cmd *cli.Command) error {
	listID, name, err := byName(cmd)
	if err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	item, created, err := r.items.AddByName(ctx, listID, name)
	if err != nil {
		return err
	}

	if created {
		return r.writePlain("✓ Added %s (%s)\n", item.Name, item.Category)
	}
	return r.writePlain("✓ %s is now %s\n", item.Name, formatter.FormatQuantity(*item))
}

// ItemsRemove lowers an item's quantity by one, deleting it when none would be left.
func (r *Runner) ItemsRemove(ctx context.Context, cmd *cli.Command) error {
	listID, name, err := byName(cmd)
	if err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	item, deleted, err := r.items.RemoveByName(ctx, listID, name)
	if err != nil {
		return err
	}

	if deleted {
		return r.writePlain("✓ Removed %s\n", item.Name)
	}
	return r.writePlain("✓ %s is now %s\n", item.Name, formatter.FormatQuantity(*item))
}

// ItemsCheck marks an item as bought.
func (r *Runner) ItemsCheck(ctx context.Context, cmd *cli.Command) error {
	return r.setChecked(ctx, cmd, true)
}

// ItemsUncheck marks an item as not bought.
func (r *Runner) ItemsUncheck(ctx context.Context, cmd *cli.Command) error {
	return r.setChecked(ctx, cmd, false)
}

func (r *Runner) setChecked(ctx context.Context, cmd *cli.Command, checked bool) error {
	listID, name, err := byName(cmd)
	if err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	item, err := r.items.SetChecked(ctx, listID, name, checked)
	if err != nil {
		return err
	}

	if item.Checked {
		return r.writePlain("✓ Checked %s\n", item.Name)
	}
	return r.writePlain("✓ Unchecked %s\n", item.Name)
}

// ItemsUncheckAll unchecks every item of a list.
func (r *Runner) ItemsUncheckAll(ctx context.Context, cmd *cli.Command) error {
	listID, err := requireArg(cmd, "list-id")
	if err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	n, err := r.items.UncheckAll(ctx, listID)
	r.writePlain("✓ Unchecked %s\n", shared.Pluralize(n, "item"))
	return err
}

// updateFrom builds an [models.ItemUpdate] from the flags the user actually set.
func updateFrom(cmd *cli.Command) models.ItemUpdate {
	var update models.ItemUpdate
	if cmd.IsSet("name") {
		update.Name = models.Ptr(cmd.String("name"))
	}
	if cmd.IsSet("category") {
		update.Category = models.Ptr(cmd.String("category"))
	}
	if cmd.IsSet("unit") {
		update.Unit = models.Ptr(cmd.String("unit"))
	}
	if cmd.IsSet("description") {
		update.Description = models.Ptr(cmd.String("description"))
	}
	if cmd.IsSet("quantity") {
		update.Quantity = models.Ptr(int(cmd.Int("quantity")))
	}
	if cmd.IsSet("price") {
		update.Price = models.Ptr(cmd.Float("price"))
	}
	if cmd.IsSet("checked") {
		update.Checked = models.Ptr(cmd.Bool("checked"))
	}
	return update
}

// ItemsUpdate applies the set flags to an item.
func (r *Runner) ItemsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	update := updateFrom(cmd)
	if update.Empty() {
		return fmt.Errorf("%w: nothing to update, pass at least one field flag", shared.ErrMissingArgument)
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	item, err := r.items.Update(ctx, id, update)
	if err != nil {
		return err
	}

	r.writePlain("✓ Updated\n")
	r.writeItem(*item)
	return nil
}

// ItemsDelete deletes an item by id.
func (r *Runner) ItemsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.listsReady(ctx); err != nil {
		return err
	}

	if err := r.items.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted item %s\n", id)
}
