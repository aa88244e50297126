package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/keys"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/permission"
	"github.com/nhle/taskdown/internal/reminder"
	"github.com/nhle/taskdown/internal/theme"
	"github.com/nhle/taskdown/internal/ui"
	"github.com/nhle/taskdown/internal/ui/board"
	"github.com/nhle/taskdown/internal/ui/command"
	"github.com/nhle/taskdown/internal/ui/detail"
	helpview "github.com/nhle/taskdown/internal/ui/help"
	"github.com/nhle/taskdown/internal/ui/projectmgr"
	"github.com/nhle/taskdown/internal/ui/taskform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoard ViewState = iota
	ViewDetail
	ViewForm
	ViewProjects
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model. It routes messages between the views
// and turns view requests into calls on the opened vault.
type Model struct {
	svc          *Services
	events       <-chan cache.Event
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	board        board.Model
	detail       detail.Model
	form         taskform.Model
	projectView  projectmgr.Model
	helpView     helpview.Model
	commandView  command.Model
	projects     []model.Project
	flash        string
	ready        bool
}

// New creates the root model for an opened vault. It subscribes to cache
// changes so the board follows every write, optimistic ones included.
func New(svc *Services) Model {
	k := keys.DefaultKeyMap()
	loc := time.Local

	m := Model{
		svc:         svc,
		events:      svc.Cache.Subscribe(),
		currentView: ViewBoard,
		keys:        k,
		board:       board.New(svc.Client, k, 80, 24),
		detail:      detail.New(k, 80, 24),
		form: taskform.New(taskform.Options{
			ReminderTime: svc.Config.Reminders.DefaultTime,
			Location:     loc,
		}, 80, 24),
		projectView: projectmgr.New(svc.Client, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
	m.board.SetProject(svc.Selection.ProjectID())
	return m
}

// Init loads the sidebar and the current board, starts listening for cache
// and reminder events and starts the reminder loop if permitted.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadProjects(),
		m.board.Init(),
		m.waitForCacheEvent(),
		m.svc.Scheduler.WaitForResult(),
		m.startReminders(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.relayout()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case cacheEventMsg:
		cmds := []tea.Cmd{m.waitForCacheEvent()}
		if msg.event.Has(cache.TasksKey(m.board.ProjectID())) {
			cmds = append(cmds, m.board.Load())
		}
		if msg.event.Has(cache.KeyProjects) {
			cmds = append(cmds, m.loadProjects())
		}
		if id := m.detail.TaskID(); id != "" && m.currentView == ViewDetail &&
			msg.event.Has(cache.TaskRemindersKey(id)) {
			cmds = append(cmds, m.loadReminders(id))
		}
		return m, tea.Batch(cmds...)

	case projectsLoadedMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("Could not load projects: %v", msg.err)
			return m, nil
		}
		m.projects = msg.projects
		m.form.SetProjects(msg.projects)
		if id := m.board.ProjectID(); id != nil && m.projectIndex(*id) < 0 {
			return m, m.switchProject(nil)
		}
		return m, nil

	case board.TasksLoadedMsg:
		if msg.Err != nil {
			m.flash = fmt.Sprintf("Could not load tasks: %v", msg.Err)
		}
		var cmd tea.Cmd
		m.board, cmd = m.board.Update(msg)
		return m, cmd

	case board.MoveRequestMsg:
		return m, m.moveTask(msg.Request)

	case moveResultMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("Move failed, board restored: %v", msg.err)
		}
		return m, nil

	case board.SelectedTaskMsg:
		id := msg.TaskID
		m.svc.Selection.SelectTask(&id)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadDetail(id)

	case detail.LoadedMsg:
		if msg.Task == nil {
			return m, m.detail.Open(msg, nil)
		}
		return m, m.detail.Open(msg, m.svc.NoteSaver(msg.Task.ID, nil))

	case remindersLoadedMsg:
		if msg.taskID == m.detail.TaskID() {
			m.detail.SetReminders(msg.reminders)
		}
		return m, nil

	case detail.BackMsg:
		m.svc.Selection.SelectTask(nil)
		m.currentView = ViewBoard
		if msg.Err != nil {
			m.flash = fmt.Sprintf("Note not saved: %v", msg.Err)
		}
		return m, nil

	case editReadyMsg:
		if msg.err != nil {
			m.currentView = ViewBoard
			m.flash = fmt.Sprintf("Could not open task: %v", msg.err)
			return m, nil
		}
		if msg.task == nil {
			m.currentView = ViewBoard
			m.flash = "Task no longer exists"
			return m, nil
		}
		return m, m.form.StartEdit(*msg.task)

	case taskform.TaskCreatedMsg:
		m.currentView = ViewBoard
		return m, m.createTask(msg.Task, msg.RemindAt)

	case taskform.TaskUpdatedMsg:
		m.currentView = ViewBoard
		return m, m.updateTask(msg)

	case taskform.FormCancelMsg:
		m.currentView = ViewBoard
		return m, nil

	case opResultMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("Could not %s: %v", msg.op, msg.err)
		}
		return m, nil

	case projectmgr.CloseMsg:
		m.currentView = ViewBoard
		return m, nil

	case projectmgr.ChosenMsg:
		m.currentView = ViewBoard
		id := msg.ID
		return m, m.switchProject(&id)

	case projectmgr.ChangedMsg:
		cmds := []tea.Cmd{m.loadProjects()}
		if id := m.board.ProjectID(); id != nil && *id == msg.DeletedID {
			cmds = append(cmds, m.switchProject(nil))
		}
		return m, tea.Batch(cmds...)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg.Command)

	case retryResultMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("Migration retry failed: %v", msg.err)
		} else {
			m.flash = "Vault is writable again"
		}
		m.relayout()
		return m, tea.Batch(m.loadProjects(), m.board.Load())

	case startRemindersMsg:
		if msg.err != nil {
			m.flash = fmt.Sprintf("Reminders off: %v", msg.err)
		}
		return m, nil

	case reminder.ResultMsg:
		switch {
		case msg.Err != nil:
			m.flash = fmt.Sprintf("Reminder check failed: %v", msg.Err)
		case msg.Delivered > 0:
			m.flash = fmt.Sprintf("%d reminder(s) sent", msg.Delivered)
		}
		return m, m.svc.Scheduler.WaitForResult()

	case tea.KeyMsg:
		m.flash = ""
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey runs the keys that belong to the root rather than the
// active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false

	case ViewBoard:
		if m.board.Searching() {
			return m, nil, false
		}
	default:
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.New):
		return m, m.startCreate(), true

	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.board.Selected(); ok {
			m.previousView = m.currentView
			m.currentView = ViewForm
			return m, m.loadForEdit(t.ID), true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.board.Selected(); ok {
			return m, m.deleteTask(t.ID), true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Done):
		t, ok := m.board.Selected()
		if !ok || t.Status == model.StatusDone {
			return m, nil, true
		}
		req, ok := m.board.MoveTo(model.StatusDone, m.board.Count(model.StatusDone))
		if !ok {
			return m, nil, true
		}
		return m, m.moveTask(req), true

	case key.Matches(msg, m.keys.Inbox):
		return m, m.switchProject(nil), true

	case key.Matches(msg, m.keys.NextProject):
		return m, m.cycleProject(1), true

	case key.Matches(msg, m.keys.PrevProject):
		return m, m.cycleProject(-1), true

	case key.Matches(msg, m.keys.Projects):
		m.previousView = m.currentView
		m.currentView = ViewProjects
		return m, m.projectView.Init(), true

	case key.Matches(msg, m.keys.Sidebar):
		m.svc.Selection.ToggleSidebar()
		m.relayout()
		return m, nil, true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewBoard:
		m.board, cmd = m.board.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	case ViewProjects:
		m.projectView, cmd = m.projectView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// executeCommand runs a palette command.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	switch c.Verb {
	case command.VerbInbox:
		return m.switchProject(nil)
	case command.VerbProject:
		for _, p := range m.projects {
			if strings.EqualFold(p.Name, c.Arg) {
				id := p.ID
				return m.switchProject(&id)
			}
		}
		m.flash = fmt.Sprintf("No project named %q", c.Arg)
		return nil
	case command.VerbProjects:
		m.previousView = ViewBoard
		m.currentView = ViewProjects
		return m.projectView.Init()
	case command.VerbNew:
		return m.startCreate()
	case command.VerbSidebar:
		m.svc.Selection.ToggleSidebar()
		m.relayout()
		return nil
	case command.VerbRetry:
		if !m.svc.State.ReadOnly() {
			m.flash = "Vault is not read-only"
			return nil
		}
		return m.retryMigrations()
	case command.VerbNotify:
		p, err := permission.Parse(c.Arg)
		if err != nil {
			m.flash = err.Error()
			return nil
		}
		return m.setPermission(p)
	case command.VerbQuit:
		return tea.Quit
	}
	return nil
}

func (m *Model) startCreate() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewForm
	return m.form.StartCreate(m.board.ProjectID(), m.board.Status())
}

// switchProject shows a container's board; nil is the Inbox.
func (m *Model) switchProject(id *string) tea.Cmd {
	m.svc.Selection.SelectProject(id)
	return m.board.SetProject(id)
}

// cycleProject steps through the Inbox followed by every project.
func (m *Model) cycleProject(step int) tea.Cmd {
	n := len(m.projects) + 1
	cur := 0
	if id := m.board.ProjectID(); id != nil {
		cur = m.projectIndex(*id) + 1
	}
	next := ((cur+step)%n + n) % n
	if next == 0 {
		return m.switchProject(nil)
	}
	id := m.projects[next-1].ID
	return m.switchProject(&id)
}

func (m Model) projectIndex(id string) int {
	for i, p := range m.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// relayout recomputes the frame after the banner or sidebar changed.
func (m *Model) relayout() {
	m.layout = m.layout.
		WithBanner(m.svc.State.ReadOnly()).
		WithSidebar(!m.svc.Selection.Get().SidebarCollapsed)
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	m.board.SetSize(w, h)
	m.detail.SetSize(w, h)
	m.form.SetSize(w, h)
	m.projectView.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Taskdown: "+m.containerName(), m.reminderStatus())
	banner := m.layout.RenderBanner(m.bannerText())
	body := m.layout.RenderBody(m.renderSidebar(), m.renderContent())
	statusBar := m.layout.RenderStatusBar(m.statusText())

	return m.layout.RenderWithFrame(header, banner, body, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBoard:
		return m.board.View()
	case ViewDetail:
		return m.detail.View()
	case ViewForm:
		return m.form.View()
	case ViewProjects:
		return m.projectView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) renderSidebar() string {
	current := m.board.ProjectID()
	lines := []string{theme.HelpStyle.Render("CONTAINERS"), ""}

	inbox := "Inbox"
	if current == nil {
		lines = append(lines, theme.SelectedItemStyle.Render(inbox))
	} else {
		lines = append(lines, theme.ListItemStyle.Render(inbox))
	}

	for _, p := range m.projects {
		label := theme.ProjectStyle(p.Color).Render("●") + " " + p.Name
		if current != nil && *current == p.ID {
			lines = append(lines, theme.SelectedItemStyle.Render(label))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(label))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) containerName() string {
	id := m.board.ProjectID()
	if id == nil {
		return "Inbox"
	}
	if i := m.projectIndex(*id); i >= 0 {
		return m.projects[i].Name
	}
	return "Project"
}

func (m Model) reminderStatus() string {
	if m.svc.Scheduler.Running() {
		return "reminders on"
	}
	return fmt.Sprintf("reminders off (%s)", m.svc.Scheduler.Permission())
}

func (m Model) bannerText() string {
	snap := m.svc.State.Get()
	if !snap.ReadOnly {
		return ""
	}
	return fmt.Sprintf("Read-only: %s. Run :retry after fixing the vault.", snap.MigrationError)
}

// statusText returns the flash message, or keyboard hints for the view.
func (m Model) statusText() string {
	if m.flash != "" {
		return m.flash
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc save and back"
	case ViewForm:
		return "enter submit | esc cancel"
	case ViewProjects:
		return "enter open | n new | e edit | d delete | esc back"
	default:
		if m.board.Filter() != "" {
			return "filter: " + m.board.Filter() + " | / edit | esc in filter clears"
		}
		return "h/l column | H/L move | enter note | n new | x done | [ ] project | ? help | q quit"
	}
}
