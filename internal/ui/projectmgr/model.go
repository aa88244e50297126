package projectmgr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/keys"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/theme"
)

// Projects is the project half of query.Client.
type Projects interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, in model.NewProject) (*model.Project, error)
	UpdateProject(ctx context.Context, id string, changes model.ProjectChanges) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// CloseMsg signals the parent to close the project view.
type CloseMsg struct{}

// ChangedMsg signals that projects were created, renamed or deleted.
// DeletedID is set when a project was removed.
type ChangedMsg struct {
	DeletedID string
}

// ChosenMsg asks the parent to show a project's board.
type ChosenMsg struct {
	ID string
}

type projectMode int

const (
	modeList projectMode = iota
	modeForm
	modeConfirmDelete
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type formBindings struct {
	name    string
	color   string
	icon    string
	confirm bool
}

type projectsLoadedMsg struct {
	projects []model.Project
	err      error
}

type projectSavedMsg struct{ err error }

type projectDeletedMsg struct {
	id  string
	err error
}

// Model is the Bubble Tea model for project management.
type Model struct {
	mode        projectMode
	client      Projects
	keys        *keys.KeyMap
	projects    []model.Project
	selectedIdx int
	editing     *model.Project
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new project manager model.
func New(c Projects, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		client: c,
		keys:   k,
		fb:     &formBindings{},
		width:  width, height: height,
	}
}

// Init loads projects.
func (m Model) Init() tea.Cmd {
	return m.loadProjects()
}

// Selected returns the highlighted project.
func (m Model) Selected() (model.Project, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.projects) {
		return model.Project{}, false
	}
	return m.projects[m.selectedIdx], true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.projects = msg.projects
		m.selectedIdx = min(m.selectedIdx, max(len(m.projects)-1, 0))
		return m, nil

	case projectSavedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "Project saved"
		return m, tea.Batch(m.loadProjects(), func() tea.Msg { return ChangedMsg{} })

	case projectDeletedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "Project deleted"
		id := msg.id
		return m, tea.Batch(m.loadProjects(), func() tea.Msg { return ChangedMsg{DeletedID: id} })

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.handleListKey(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m, nil
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.projects)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + len(m.projects) - 1) % len(m.projects)
		}

	case key.Matches(msg, m.keys.Open):
		if p, ok := m.Selected(); ok {
			id := p.ID
			return m, func() tea.Msg { return ChosenMsg{ID: id} }
		}

	case key.Matches(msg, m.keys.New):
		m.editing = nil
		*m.fb = formBindings{color: model.DefaultProjectColor}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		p, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.editing = &p
		*m.fb = formBindings{name: p.Name, color: p.Color}
		if p.Icon != nil {
			m.fb.icon = *p.Icon
		}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.Selected(); !ok {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Project name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Color").
				Placeholder(model.DefaultProjectColor).
				Value(&m.fb.color).
				Validate(validateColor),
			huh.NewInput().
				Title("Icon").
				Placeholder("optional").
				Value(&m.fb.icon),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	p, _ := m.Selected()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %q?", p.Name)).
				Description("Tasks in this project will move to the Inbox.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, m.saveProject()
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		if p, ok := m.Selected(); ok && m.fb.confirm {
			return m, m.deleteProject(p.ID)
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the project manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Projects"))
	b.WriteString("\n\n")

	if len(m.projects) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No projects yet. Press 'n' to create one."))
	} else {
		for i, p := range m.projects {
			label := theme.ProjectStyle(p.Color).Render("●") + " " + p.Name
			if p.Icon != nil && *p.Icon != "" {
				label = *p.Icon + " " + p.Name
			}
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render(
		"enter open | n new | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateColor(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || hexColor.MatchString(s) {
		return nil
	}
	return fmt.Errorf("color must look like #RRGGBB")
}

func (m Model) loadProjects() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		projects, err := c.ListProjects(context.Background())
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

// saveProject builds the insert or the minimal update from the bound values.
func (m Model) saveProject() tea.Cmd {
	c := m.client
	name := strings.TrimSpace(m.fb.name)
	color := strings.TrimSpace(m.fb.color)
	if color == "" {
		color = model.DefaultProjectColor
	}
	icon := strings.TrimSpace(m.fb.icon)

	if m.editing == nil {
		in := model.NewProject{Name: name, Color: color}
		if icon != "" {
			in.Icon = &icon
		}
		return func() tea.Msg {
			_, err := c.CreateProject(context.Background(), in)
			return projectSavedMsg{err: err}
		}
	}

	old := *m.editing
	var changes model.ProjectChanges
	if name != old.Name {
		changes.Name = &name
	}
	if color != old.Color {
		changes.Color = &color
	}
	switch {
	case icon == "" && old.Icon != nil:
		changes.ClearIcon = true
	case icon != "" && (old.Icon == nil || *old.Icon != icon):
		changes.Icon = &icon
	}
	if changes.Empty() {
		return func() tea.Msg { return projectSavedMsg{} }
	}
	return func() tea.Msg {
		_, err := c.UpdateProject(context.Background(), old.ID, changes)
		return projectSavedMsg{err: err}
	}
}

func (m Model) deleteProject(id string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		err := c.DeleteProject(context.Background(), id)
		return projectDeletedMsg{id: id, err: err}
	}
}
