package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/theme"
)

// Verbs understood by the palette.
const (
	VerbInbox    = "inbox"
	VerbProject  = "project"
	VerbProjects = "projects"
	VerbNew      = "new"
	VerbSidebar  = "sidebar"
	VerbRetry    = "retry"
	VerbNotify   = "notify"
	VerbQuit     = "quit"
)

var usage = []struct {
	verb, args, desc string
}{
	{VerbInbox, "", "show the Inbox"},
	{VerbProject, "<name>", "show a project's board"},
	{VerbProjects, "", "manage projects"},
	{VerbNew, "", "create a task"},
	{VerbSidebar, "", "toggle the sidebar"},
	{VerbRetry, "", "retry a failed migration"},
	{VerbNotify, "granted|denied|default", "set notification permission"},
	{VerbQuit, "", "quit"},
}

// Usage returns one line per verb for the help view.
func Usage() []string {
	lines := make([]string, len(usage))
	for i, u := range usage {
		lines[i] = strings.TrimSpace(fmt.Sprintf("%-9s %-24s %s", u.verb, u.args, u.desc))
	}
	return lines
}

// Command is a parsed palette entry. Arg is everything after the verb.
type Command struct {
	Verb string
	Arg  string
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
}

// Parse splits input into a verb and its argument and checks the verb.
func Parse(input string) (Command, error) {
	input = strings.TrimSpace(input)
	verb, arg, _ := strings.Cut(input, " ")
	c := Command{Verb: strings.ToLower(verb), Arg: strings.TrimSpace(arg)}

	switch c.Verb {
	case VerbInbox, VerbProjects, VerbNew, VerbSidebar, VerbRetry, VerbQuit:
		return c, nil
	case VerbProject:
		if c.Arg == "" {
			return Command{}, fmt.Errorf("usage: project <name>")
		}
		return c, nil
	case VerbNotify:
		switch strings.ToLower(c.Arg) {
		case "granted", "denied", "default":
			c.Arg = strings.ToLower(c.Arg)
			return c, nil
		}
		return Command{}, fmt.Errorf("usage: notify granted|denied|default")
	case "":
		return Command{}, fmt.Errorf("empty command")
	}
	return Command{}, fmt.Errorf("unknown command %q", verb)
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    error
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Width = width - 6
	ti.ShowSuggestions = true
	suggestions := make([]string, len(usage))
	for i, u := range usage {
		suggestions[i] = u.verb
	}
	ti.SetSuggestions(suggestions)

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEnter {
		input := m.input.Value()
		c, err := Parse(input)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.input.Reset()
		return m, func() tea.Msg { return CommandMsg{Command: c} }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command Palette"), m.input.View()}
	if m.err != nil {
		parts = append(parts, theme.OverdueStyle.Render(m.err.Error()))
	}

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input and clears any old error.
func (m *Model) Focus() tea.Cmd {
	m.err = nil
	m.input.Reset()
	return m.input.Focus()
}
