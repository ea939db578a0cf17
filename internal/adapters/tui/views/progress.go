package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"patchlink/internal/adapters/tui/styles"
)

// DefaultLogLines is how many log records the progress view keeps on screen
const DefaultLogLines = 12

// ProgressKeyMap defines key bindings for the progress view
type ProgressKeyMap struct {
	Cancel key.Binding
}

// ProgressKeys are the default progress view bindings
var ProgressKeys = ProgressKeyMap{
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("ctrl+c", "cancel"),
	),
}

// LogMsg carries one log record into the view
type LogMsg struct {
	Level   slog.Level
	Message string
	Attrs   string
}

// DoneMsg reports that the background work has finished
type DoneMsg struct {
	Err error
}

// ProgressModel shows a spinner and the most recent log records while a
// long running operation is in flight.
type ProgressModel struct {
	width    int
	title    string
	spinner  spinner.Model
	cancel   context.CancelFunc
	maxLines int

	lines      []LogMsg
	done       bool
	cancelled  bool
	err        error
	message    string
	messageErr bool
}

// NewProgressModel creates a progress view. cancel is invoked when the
// user asks to stop.
func NewProgressModel(title string, cancel context.CancelFunc) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return &ProgressModel{
		title:    title,
		spinner:  s,
		cancel:   cancel,
		maxLines: DefaultLogLines,
	}
}

// Init starts the spinner
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the progress view
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// app padding takes two columns on each side
		m.width = max(msg.Width-4, 0)
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LogMsg:
		m.lines = append(m.lines, msg)
		if len(m.lines) > m.maxLines {
			m.lines = m.lines[len(m.lines)-m.maxLines:]
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Err != nil {
			m.message, m.messageErr = msg.Err.Error(), true
		} else {
			m.message, m.messageErr = "Done", false
		}
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, ProgressKeys.Cancel) && !m.done && !m.cancelled {
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			m.message, m.messageErr = "Cancelling...", true
		}
		return m, nil
	}
	return m, nil
}

// Done reports whether the operation finished
func (m *ProgressModel) Done() bool { return m.done }

// Cancelled reports whether the user requested cancellation
func (m *ProgressModel) Cancelled() bool { return m.cancelled }

// Err returns the error the operation finished with
func (m *ProgressModel) Err() error { return m.err }

// Lines returns the log records currently on screen
func (m *ProgressModel) Lines() []LogMsg { return m.lines }

// View renders the progress view
func (m *ProgressModel) View() string {
	s := &screen{width: m.width}
	s.title(m.title)

	for _, line := range m.lines {
		s.line(renderLogLine(line))
	}
	if len(m.lines) > 0 {
		s.blank()
	}

	if !m.done {
		s.line(m.spinner.View() + " " + RenderMuted("working"))
		s.blank()
	}
	if m.message != "" {
		s.line(renderMessage(m.message, m.messageErr))
		s.blank()
	}
	if !m.done {
		s.line(renderHelp(ProgressKeys.Cancel))
	}
	return s.String()
}

func renderLogLine(msg LogMsg) string {
	level := msg.Level.String()
	var b strings.Builder
	b.WriteString(styles.LevelStyle(level).Render(fmt.Sprintf("%-5s", level)))
	b.WriteString(" ")
	b.WriteString(msg.Message)
	if msg.Attrs != "" {
		b.WriteString(" ")
		b.WriteString(RenderMuted(msg.Attrs))
	}
	return b.String()
}
