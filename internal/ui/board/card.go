package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/richtext"
	"github.com/nhle/taskdown/internal/theme"
)

// cardHeight is the number of lines one card takes, spacing included.
const cardHeight = 3

func (m Model) renderColumn(status model.TaskStatus, focused bool, width, height int) string {
	column := m.columns[status]

	header := theme.StatusStyle(string(status)).Render(
		fmt.Sprintf("%s %d", status.Label(), len(column)),
	)
	lines := []string{header, ""}

	if len(column) == 0 {
		lines = append(lines, theme.HelpStyle.Render("empty"))
		return strings.Join(lines, "\n")
	}

	// Scroll so the cursor stays visible.
	fit := max((height-len(lines))/cardHeight, 1)
	start := 0
	if focused && m.row >= fit {
		start = m.row - fit + 1
	}
	end := min(start+fit, len(column))

	now := time.Now()
	for i := start; i < end; i++ {
		lines = append(lines, renderCard(column[i], focused && i == m.row, width, now))
	}
	if end < len(column) {
		lines = append(lines, theme.HelpStyle.Render(fmt.Sprintf("+%d more", len(column)-end)))
	}
	return strings.Join(lines, "\n")
}

func renderCard(t model.Task, selected bool, width int, now time.Time) string {
	inner := max(width-3, 4)

	title := t.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	title = truncate(title, inner)
	if t.Status == model.StatusDone {
		title = theme.DimmedStyle.Render(title)
	}

	var meta []string
	budget := inner
	if t.DueDate != nil {
		due := t.DueDate.Local().Format("Jan 02")
		if t.IsOverdue(now) {
			due = "! " + due
			meta = append(meta, theme.OverdueStyle.Render(due))
		} else {
			meta = append(meta, theme.DueDateStyle.Render(due))
		}
		budget -= len([]rune(due)) + 1
	}
	if budget > 3 {
		if preview := richtext.Preview(t.Content, budget); preview != "" {
			meta = append(meta, lipgloss.NewStyle().Foreground(theme.ColorGray).Render(preview))
		}
	}
	card := title + "\n" + strings.Join(meta, " ")

	if selected {
		return theme.SelectedItemStyle.Render(card)
	}
	return theme.ListItemStyle.Render(card)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
