package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundchat/internal/formatter"
	"github.com/desertthunder/soundchat/internal/tasks"
	"github.com/desertthunder/soundchat/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal browser for a running server.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	// Logs would interfere with TUI rendering
	logPath := filepath.Join(os.TempDir(), "soundchat-tui.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)

	source := tasks.NewAPISource(r.client(cmd))
	model := ui.NewModel(ctx, source, ui.Options{Format: format, OutputDir: cmd.String("dir")})

	if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
