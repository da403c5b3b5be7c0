package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Brand colors.
const (
	basil   = lipgloss.Color("#2E7D32")
	leaf    = lipgloss.Color("#66BB6A")
	tomato  = lipgloss.Color("#E53935")
	mustard = lipgloss.Color("#F9A825")
	pebble  = lipgloss.Color("#757575")
)

var styles = newPalette()

// palette holds the styles the views render with.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
}

func newPalette() palette {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return palette{
		title: fg(basil).Bold(true).MarginBottom(1),
		ok:    fg(leaf).Bold(true),
		err:   fg(tomato).Bold(true),
		warn:  fg(mustard),
		help:  fg(pebble).Italic(true),
		label: fg(basil).Width(10),
	}
}
