package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/desertthunder/cartx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI. The session bootstraps in the background while the loading view is
// shown.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil || r.users == nil {
		return fmt.Errorf("%w: session not initialized", shared.ErrServiceUnavailable)
	}
	if r.lists == nil || r.items == nil {
		return fmt.Errorf("%w: list services not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logFile, err := shared.OpenLogFile(cmd.String("log-file"))
	if err != nil {
		return err
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)
	defer r.logger.SetOutput(os.Stderr)

	model := ui.NewModel(ctx, ui.Deps{
		Session: r.session,
		Auth:    r.users,
		Lists:   r.lists,
		Items:   r.items,
	})
	r.session.SetNavigator(model.Navigator())

	go r.session.Bootstrap(ctx)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
