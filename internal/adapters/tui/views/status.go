package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"patchlink/internal/adapters/tui/styles"
	"patchlink/internal/application"
)

var statusHeaders = []string{"PATCH", "PREVIOUS", "STATE", "LINKS"}

// RenderStatus renders patch statuses as an aligned table, newest first
func RenderStatus(statuses []application.PatchStatus) string {
	if len(statuses) == 0 {
		return RenderMuted("no patch directories")
	}

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		previous := "-"
		if !s.Previous.IsZero() {
			previous = s.Previous.String()
		}
		links := "missing"
		if s.HasManifest {
			links = fmt.Sprintf("%d", s.LinkCount)
		}
		rows = append(rows, []string{s.Version.String(), previous, s.State.String(), links})
	}

	widths := make([]int, len(statusHeaders))
	for i, h := range statusHeaders {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(statusHeaders, widths, func(_ int, s string) string {
		return styles.TableHeader.Render(s)
	}))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(renderRow(row, widths, func(i int, s string) string {
			switch {
			case i == 0:
				return styles.PatchVersion.Render(s)
			case i == 3 && s == "missing":
				return styles.WarningMsg.Render(s)
			default:
				return s
			}
		}))
	}
	return b.String()
}

func renderRow(cells []string, widths []int, style func(int, string) string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		parts[i] = style(i, cell) + pad
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
