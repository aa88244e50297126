package detail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/autosave"
	"github.com/nhle/taskdown/internal/keys"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/richtext"
	"github.com/nhle/taskdown/internal/theme"
)

// closeTimeout bounds the final flush when the editor closes.
const closeTimeout = 5 * time.Second

// BackMsg signals the parent to return to the board. Err is set when the
// final save of the note failed.
type BackMsg struct {
	Err error
}

// LoadedMsg carries the task to edit.
type LoadedMsg struct {
	Task        *model.Task
	ProjectName string
	Reminders   []model.Reminder
	Err         error
}

// Saver is the part of autosave.Saver the editor drives.
type Saver interface {
	Change(content string)
	Status() autosave.Status
	Close(ctx context.Context) error
}

// Model is the note editor for one task.
type Model struct {
	task      *model.Task
	project   string
	reminders []model.Reminder
	editor    textarea.Model
	saver     Saver
	text      string
	keys      *keys.KeyMap
	width     int
	height    int
	loading   bool
	err       error
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Write a note..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	m := Model{
		editor: ta,
		keys:   keys,
	}
	m.SetSize(width, height)
	return m
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetLoading shows the placeholder while the task is read.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Open starts editing a loaded task; edits are written through saver.
func (m *Model) Open(msg LoadedMsg, saver Saver) tea.Cmd {
	m.loading = false
	m.err = msg.Err
	m.task = msg.Task
	m.project = msg.ProjectName
	m.reminders = msg.Reminders
	m.saver = saver
	if m.task == nil {
		m.text = ""
		m.editor.Reset()
		return nil
	}
	m.text = richtext.PlainText(m.task.Content)
	m.editor.SetValue(m.text)
	return m.editor.Focus()
}

// SetReminders replaces the reminder list shown under the title.
func (m *Model) SetReminders(reminders []model.Reminder) {
	m.reminders = reminders
}

// TaskID returns the task being edited, or "".
func (m Model) TaskID() string {
	if m.task == nil {
		return ""
	}
	return m.task.ID
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		m.editor.Blur()
		return m, m.close()
	}
	if m.task == nil {
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if v := m.editor.Value(); v != m.text {
		m.text = v
		if m.saver != nil {
			m.saver.Change(richtext.FromPlainText(v))
		}
	}
	return m, cmd
}

// close flushes the note and then tells the parent to go back.
func (m *Model) close() tea.Cmd {
	saver := m.saver
	m.saver = nil
	return func() tea.Msg {
		if saver == nil {
			return BackMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		return BackMsg{Err: saver.Close(ctx)}
	}
}

// View renders the detail view.
func (m Model) View() string {
	center := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return center.Render("Loading task...")
	}
	if m.err != nil {
		return center.Render(fmt.Sprintf("Could not load task: %v", m.err))
	}
	if m.task == nil {
		return center.Render("Task not found")
	}

	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := task.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	sections = append(sections, titleStyle.Render(title))

	badges := []string{theme.StatusStyle(string(task.Status)).Render(task.Status.Label())}
	project := m.project
	if project == "" {
		project = "Inbox"
	}
	badges = append(badges, lipgloss.NewStyle().Foreground(theme.ColorIndigo).Render(project))
	if task.DueDate != nil {
		style := theme.DueDateStyle
		if task.IsOverdue(time.Now()) {
			style = theme.OverdueStyle
		}
		badges = append(badges, style.Render("due "+task.DueDate.Local().Format("2006-01-02")))
	}
	sections = append(sections, strings.Join(badges, "  "))

	if len(m.reminders) > 0 {
		meta := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for _, r := range m.reminders {
			state := "pending"
			if r.IsSent {
				state = "sent"
			}
			sections = append(sections, meta.Render(fmt.Sprintf(
				"reminder %s (%s)", r.RemindAt.Local().Format("2006-01-02 15:04"), state,
			)))
		}
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	sections = append(sections, sep.Render(strings.Repeat("─", max(min(m.width-4, 80), 0))))
	sections = append(sections, m.editor.View())
	sections = append(sections, m.saveStatus())

	return lipgloss.NewStyle().Padding(0, 1).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) saveStatus() string {
	if m.saver == nil {
		return ""
	}
	switch m.saver.Status() {
	case autosave.StatusSaving:
		return theme.HelpStyle.Render("saving...")
	case autosave.StatusSaved:
		return lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("saved")
	case autosave.StatusError:
		return theme.OverdueStyle.Render("not saved, will retry on close")
	}
	return ""
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.editor.SetWidth(max(width-4, 10))
	m.editor.SetHeight(max(height-8, 3))
}
