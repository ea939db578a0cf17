package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"patchlink/internal/adapters/tui/views"
)

// Task is the work a progress view waits on
type Task func(ctx context.Context, logger *slog.Logger) error

// Run executes task while showing its log output behind a spinner.
// Pressing ctrl+c cancels the context handed to task; Run still waits for
// task to return.
func Run(ctx context.Context, title string, level slog.Leveler, task Task, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := views.NewProgressModel(title, cancel)
	p := tea.NewProgram(model, opts...)
	logger := slog.New(NewLogHandler(p, level))

	errCh := make(chan error, 1)
	go func() {
		err := task(ctx, logger)
		errCh <- err
		p.Send(views.DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("failed to run progress view: %w", err)
	}
	return <-errCh
}
