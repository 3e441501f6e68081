package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jarvis/internal/shared"
	"github.com/desertthunder/jarvis/internal/ui"
	"github.com/urfave/cli/v3"
)

// Chat launches the interactive chat shell.
func (r *Runner) Chat(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	if path := r.config.Log.File; path != "" {
		fileLogger, closer, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer closer.Close()
		shared.ApplyLogLevel(fileLogger, r.config.Log.Level)
		r.SetLogger(fileLogger)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, r.dispatcher, r.openBrowser)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chat shell: %w", err)
	}

	return nil
}
