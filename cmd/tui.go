package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/anitrack/internal/cache"
	"github.com/desertthunder/anitrack/internal/countdown"
	"github.com/desertthunder/anitrack/internal/shared"
	"github.com/desertthunder/anitrack/internal/ui"
)

// TUI launches the interactive countdown board.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireJikan(); err != nil {
		return err
	}

	// Logs go to a file so they do not interfere with TUI rendering
	path := r.config.Log.File
	if path == "" {
		path = "anitrack.log"
	}
	logFile := shared.NewRotatingFile(path)
	defer logFile.Close()
	r.logger.SetOutput(logFile)

	board := countdown.NewBoard(r.clock, 64)
	defer board.Close()

	opts := ui.Options{
		Season: r.jikan,
		Board:  board,
		Clock:  r.clock,
		UserID: r.userID(),
		Open:   r.open,
	}
	if r.store != nil {
		opts.Tracker = r.engine
	}

	model := ui.NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if m, ok := r.responses.(*cache.Memory); ok {
		stats := m.Stats()
		r.logger.Info("response cache", "entries", m.Len(), "hits", stats.Hits, "misses", stats.Misses)
	}
	return nil
}
