package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"patchlink/internal/adapters/tui/styles"
)

// RenderMuted renders muted/secondary text
func RenderMuted(text string) string {
	return styles.MutedText.Render(text)
}

func renderMessage(message string, isError bool) string {
	if isError {
		return styles.ErrorMsg.Render(message)
	}
	return styles.Success.Render(message)
}

func renderHelp(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

// screen accumulates the lines of a view. Lines wider than width are
// truncated when width is set.
type screen struct {
	b     strings.Builder
	width int
}

func (s *screen) title(text string) {
	s.b.WriteString(styles.Title.Render(text))
	s.b.WriteString("\n\n")
}

func (s *screen) line(text string) {
	if s.width > 0 {
		text = lipgloss.NewStyle().MaxWidth(s.width).Render(text)
	}
	s.b.WriteString(text)
	s.b.WriteString("\n")
}

func (s *screen) blank() {
	s.b.WriteString("\n")
}

func (s *screen) String() string {
	return styles.App.Render(s.b.String())
}
