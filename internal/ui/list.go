package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/cartx/internal/formatter"
	"github.com/desertthunder/cartx/internal/models"
)

var (
	_ list.Item = listEntry{}
	_ list.Item = itemEntry{}
)

// listEntry wraps [models.List] to implement [list.Item].
type listEntry struct {
	list models.List
}

func (i listEntry) FilterValue() string { return i.list.Name }
func (i listEntry) Title() string       { return i.list.Name }
func (i listEntry) Description() string { return i.list.ID }

// itemEntry wraps [models.Item] to implement [list.Item].
type itemEntry struct {
	item models.Item
}

func (i itemEntry) FilterValue() string { return i.item.Name }
func (i itemEntry) Title() string {
	mark := " "
	if i.item.Checked {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s", mark, i.item.Name)
}

func (i itemEntry) Description() string {
	desc := fmt.Sprintf("%s • %s", formatter.FormatQuantity(i.item), i.item.Category)
	if price := formatter.FormatPrice(i.item.Price); price != "" {
		desc = fmt.Sprintf("%s • %s", desc, price)
	}
	return desc
}

func listEntries(lists []models.List) []list.Item {
	entries := make([]list.Item, len(lists))
	for i, l := range lists {
		entries[i] = listEntry{list: l}
	}
	return entries
}

func itemEntries(items []models.Item) []list.Item {
	entries := make([]list.Item, len(items))
	for i, it := range items {
		entries[i] = itemEntry{item: it}
	}
	return entries
}
