package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/keys"
	"github.com/nhle/taskdown/internal/theme"
	"github.com/nhle/taskdown/internal/ui/command"
)

// groupTitles names the rows of keys.KeyMap.FullHelp, in order.
var groupTitles = []string{"Navigate", "Reorder", "Tasks", "Containers", "General"}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   keys,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	headingStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorIndigo)
	keyStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(8)
	descStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	var columns []string
	for i, group := range m.keys.FullHelp() {
		lines := []string{headingStyle.Render(groupTitle(i))}
		for _, b := range group {
			lines = append(lines, keyLine(b, keyStyle, descStyle))
		}
		columns = append(columns, lipgloss.NewStyle().MarginRight(3).Render(strings.Join(lines, "\n")))
	}

	verbs := []string{headingStyle.Render("Commands (:)")}
	for _, u := range command.Usage() {
		verbs = append(verbs, descStyle.Render(u))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		strings.Join(verbs, "\n"),
	)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

func groupTitle(i int) string {
	if i < len(groupTitles) {
		return groupTitles[i]
	}
	return ""
}

func keyLine(b key.Binding, keyStyle, descStyle lipgloss.Style) string {
	h := b.Help()
	return keyStyle.Render(h.Key) + descStyle.Render(h.Desc)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
