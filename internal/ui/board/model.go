package board

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/kanban"
	"github.com/nhle/taskdown/internal/keys"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/theme"
)

// Lister loads the tasks of one container. query.Client satisfies it.
type Lister interface {
	ListTasks(ctx context.Context, projectID *string) ([]model.Task, error)
}

// TasksLoadedMsg is sent when a container's tasks have been read.
type TasksLoadedMsg struct {
	ProjectID *string
	Tasks     []model.Task
	Err       error
}

// SelectedTaskMsg is sent when the user opens a card.
type SelectedTaskMsg struct {
	TaskID string
}

// MoveRequestMsg asks the parent to run a reorder through the engine.
type MoveRequestMsg struct {
	Request kanban.MoveRequest
}

// Model is the four-column kanban board for one container.
type Model struct {
	tasks       Lister
	keys        *keys.KeyMap
	projectID   *string
	all         []model.Task
	columns     map[model.TaskStatus][]model.Task
	col         int
	row         int
	follow      string
	filter      string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a board on the Inbox.
func New(l Lister, k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "filter cards..."
	si.Prompt = "/ "
	si.Width = width - 4

	m := Model{
		tasks:       l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
	m.regroup()
	return m
}

// Init loads the Inbox.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that reads the current container.
func (m Model) Load() tea.Cmd {
	l := m.tasks
	projectID := m.projectID
	return func() tea.Msg {
		tasks, err := l.ListTasks(context.Background(), projectID)
		return TasksLoadedMsg{ProjectID: projectID, Tasks: tasks, Err: err}
	}
}

// SetProject switches container; nil is the Inbox.
func (m *Model) SetProject(id *string) tea.Cmd {
	m.projectID = id
	m.all = nil
	m.col, m.row = 0, 0
	m.regroup()
	return m.Load()
}

// ProjectID returns the container on display.
func (m Model) ProjectID() *string {
	return m.projectID
}

// SetTasks replaces the board contents, keeping the cursor on the same card
// when it is still present.
func (m *Model) SetTasks(tasks []model.Task) {
	keep := m.follow
	if keep == "" {
		if t, ok := m.Selected(); ok {
			keep = t.ID
		}
	}
	m.all = tasks
	m.regroup()
	m.follow = ""
	if keep != "" {
		m.focus(keep)
	}
	m.clamp()
}

// Selected returns the card under the cursor.
func (m Model) Selected() (model.Task, bool) {
	column := m.columns[model.Statuses[m.col]]
	if m.row < 0 || m.row >= len(column) {
		return model.Task{}, false
	}
	return column[m.row], true
}

// Status returns the column under the cursor.
func (m Model) Status() model.TaskStatus {
	return model.Statuses[m.col]
}

// Count returns the number of cards in a column, after filtering.
func (m Model) Count(status model.TaskStatus) int {
	return len(m.columns[status])
}

// Filter returns the active card filter.
func (m Model) Filter() string {
	return m.filter
}

// Searching reports whether the filter input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the board.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		if !sameProject(msg.ProjectID, m.projectID) || msg.Err != nil {
			return m, nil
		}
		m.SetTasks(msg.Tasks)
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.searchInput.Blur()
		m.filter = ""
		m.regroup()
		m.clamp()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.filter = strings.TrimSpace(m.searchInput.Value())
	m.regroup()
	m.clamp()
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.row--
		m.clamp()

	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clamp()

	case key.Matches(msg, m.keys.Left):
		m.col = (m.col + len(model.Statuses) - 1) % len(model.Statuses)
		m.clamp()

	case key.Matches(msg, m.keys.Right):
		m.col = (m.col + 1) % len(model.Statuses)
		m.clamp()

	case key.Matches(msg, m.keys.MoveUp):
		return m.move(m.col, m.row-1)

	case key.Matches(msg, m.keys.MoveDown):
		return m.move(m.col, m.row+1)

	case key.Matches(msg, m.keys.MoveLeft):
		if m.col > 0 {
			return m.move(m.col-1, m.row)
		}

	case key.Matches(msg, m.keys.MoveRight):
		if m.col < len(model.Statuses)-1 {
			return m.move(m.col+1, m.row)
		}

	case key.Matches(msg, m.keys.Open):
		if t, ok := m.Selected(); ok {
			return m, func() tea.Msg { return SelectedTaskMsg{TaskID: t.ID} }
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.filter)
		return m, m.searchInput.Focus()
	}
	return m, nil
}

// MoveTo builds the request that places the selected card at index of the
// given column and moves the cursor along with it.
func (m *Model) MoveTo(status model.TaskStatus, index int) (kanban.MoveRequest, bool) {
	t, ok := m.Selected()
	if !ok {
		return kanban.MoveRequest{}, false
	}
	dest := kanban.Column(m.all, status, t.ID)
	index = min(max(index, 0), len(dest))
	if status == t.Status && index == m.row {
		return kanban.MoveRequest{}, false
	}
	for i, s := range model.Statuses {
		if s == status {
			m.col = i
		}
	}
	m.follow = t.ID
	return kanban.MoveRequest{
		TaskID:    t.ID,
		ProjectID: m.projectID,
		Status:    status,
		Index:     index,
	}, true
}

func (m Model) move(col, index int) (Model, tea.Cmd) {
	if m.filter != "" {
		// Indexes in a filtered column do not map onto the stored order.
		return m, nil
	}
	req, ok := m.MoveTo(model.Statuses[col], index)
	if !ok {
		return m, nil
	}
	m.row = req.Index
	return m, func() tea.Msg { return MoveRequestMsg{Request: req} }
}

// View renders the board.
func (m Model) View() string {
	colWidth := max(m.width/len(model.Statuses)-2, 12)
	colHeight := max(m.height-2, 3)
	if m.searchMode || m.filter != "" {
		colHeight--
	}

	rendered := make([]string, len(model.Statuses))
	for i, status := range model.Statuses {
		style := theme.ColumnStyle
		if i == m.col {
			style = theme.FocusedColumnStyle
		}
		rendered[i] = style.
			Width(colWidth).
			Height(colHeight).
			Render(m.renderColumn(status, i == m.col, colWidth, colHeight))
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	if m.searchMode {
		return lipgloss.JoinVertical(lipgloss.Left, m.searchInput.View(), board)
	}
	if m.filter != "" {
		return lipgloss.JoinVertical(lipgloss.Left, theme.HelpStyle.Render("filter: "+m.filter), board)
	}
	return board
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 4
}

func (m *Model) regroup() {
	visible := m.all
	if m.filter != "" {
		needle := strings.ToLower(m.filter)
		visible = nil
		for _, t := range m.all {
			if strings.Contains(strings.ToLower(t.Title), needle) {
				visible = append(visible, t)
			}
		}
	}
	m.columns = kanban.Board(visible)
}

func (m *Model) focus(id string) {
	for i, status := range model.Statuses {
		for j, t := range m.columns[status] {
			if t.ID == id {
				m.col, m.row = i, j
				return
			}
		}
	}
}

func (m *Model) clamp() {
	n := len(m.columns[model.Statuses[m.col]])
	m.row = min(max(m.row, 0), max(n-1, 0))
}

func sameProject(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
