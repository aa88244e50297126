package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/richtext"
	"github.com/nhle/taskdown/internal/theme"
)

// TaskCreatedMsg is dispatched when a new task is submitted. RemindAt is
// set when the user asked for a reminder.
type TaskCreatedMsg struct {
	Task     model.NewTask
	RemindAt *time.Time
}

// TaskUpdatedMsg is dispatched when an edit is submitted. Changes only
// carries fields that differ from the task as it was opened.
type TaskUpdatedMsg struct {
	ID       string
	Changes  model.TaskChanges
	RemindAt *time.Time
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// Options configures date handling.
type Options struct {
	// ReminderTime is the HH:MM used when a reminder is given as a date.
	ReminderTime string
	Location     *time.Location
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title     string
	notes     string
	status    model.TaskStatus
	dueDate   string
	projectID string
	remindAt  string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	opts     Options
	editing  *model.Task
	projects []model.Project
	width    int
	height   int
}

// New creates a new task form model.
func New(opts Options, width, height int) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.ReminderTime == "" {
		opts.ReminderTime = "09:00"
	}
	return Model{
		fb:     &formBindings{status: model.StatusBacklog},
		opts:   opts,
		width:  width,
		height: height,
	}
}

// SetProjects sets the choices of the project selector.
func (m *Model) SetProjects(projects []model.Project) {
	m.projects = projects
}

// StartCreate initializes the form for a new task in the given container
// and column.
func (m *Model) StartCreate(projectID *string, status model.TaskStatus) tea.Cmd {
	m.editing = nil
	*m.fb = formBindings{status: status}
	if !status.Valid() {
		m.fb.status = model.StatusBacklog
	}
	if projectID != nil {
		m.fb.projectID = *projectID
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing task. The note is
// edited in the detail view, so it is not part of the form.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editing = &task
	*m.fb = formBindings{
		title:  task.Title,
		status: task.Status,
	}
	if task.DueDate != nil {
		m.fb.dueDate = task.DueDate.In(m.opts.Location).Format(model.DateLayout)
	}
	if task.ProjectID != nil {
		m.fb.projectID = *task.ProjectID
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Editing reports whether the form edits an existing task.
func (m Model) Editing() bool {
	return m.editing != nil
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		result := m.result()
		m.form = nil
		return m, func() tea.Msg { return result }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return FormCancelMsg{} }
	}
	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editing != nil {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
	}
	if m.editing == nil {
		fields = append(fields, huh.NewText().
			Title("Note").
			Placeholder("Optional details...").
			Value(&m.fb.notes))
	}

	statusOpts := make([]huh.Option[model.TaskStatus], len(model.Statuses))
	for i, s := range model.Statuses {
		statusOpts[i] = huh.NewOption(s.Label(), s)
	}

	fields = append(fields,
		huh.NewSelect[model.TaskStatus]().
			Title("Status").
			Options(statusOpts...).
			Value(&m.fb.status),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(m.validateOptionalDate),
		m.projectField(),
		huh.NewInput().
			Title("Remind Me").
			Placeholder(fmt.Sprintf("YYYY-MM-DD [HH:MM] (optional, default %s)", m.opts.ReminderTime)).
			Value(&m.fb.remindAt).
			Validate(m.validateOptionalReminder),
	)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) projectField() huh.Field {
	return huh.NewSelect[string]().
		Title("Project").
		Options(projectOptions(m.projects, m.fb.projectID)...).
		Value(&m.fb.projectID)
}

// projectOptions lists the Inbox and every project. A bound project missing
// from the list (not loaded yet) is kept as its own option so the select
// does not fall back to the Inbox.
func projectOptions(projects []model.Project, bound string) []huh.Option[string] {
	opts := []huh.Option[string]{
		huh.NewOption("Inbox", ""),
	}
	found := bound == ""
	for _, p := range projects {
		opts = append(opts, huh.NewOption(p.Name, p.ID))
		found = found || p.ID == bound
	}
	if !found {
		opts = append(opts, huh.NewOption("Current project", bound))
	}
	return opts
}

// result turns the bound values into the message for the parent. Inputs
// were validated by the form, so parse errors cannot occur here.
func (m Model) result() tea.Msg {
	fb := m.fb
	title := strings.TrimSpace(fb.title)

	var due *time.Time
	if s := strings.TrimSpace(fb.dueDate); s != "" {
		if t, err := model.ParseDate(s, m.opts.Location); err == nil {
			due = &t
		}
	}
	var remindAt *time.Time
	if s := strings.TrimSpace(fb.remindAt); s != "" {
		if t, err := model.ParseRemindAt(s, m.opts.ReminderTime, m.opts.Location); err == nil {
			remindAt = &t
		}
	}
	var projectID *string
	if fb.projectID != "" {
		id := fb.projectID
		projectID = &id
	}

	if m.editing == nil {
		content := model.EmptyContent
		if strings.TrimSpace(fb.notes) != "" {
			content = richtext.FromPlainText(fb.notes)
		}
		return TaskCreatedMsg{
			Task: model.NewTask{
				Title:     title,
				Content:   content,
				ProjectID: projectID,
				Status:    fb.status,
				DueDate:   due,
			},
			RemindAt: remindAt,
		}
	}

	old := m.editing
	var changes model.TaskChanges
	if title != old.Title {
		changes.Title = &title
	}
	if fb.status != old.Status {
		status := fb.status
		changes.Status = &status
	}
	switch {
	case due == nil && old.DueDate != nil:
		changes.ClearDueDate = true
	case due != nil && (old.DueDate == nil || !due.Equal(*old.DueDate)):
		changes.DueDate = due
	}
	switch {
	case projectID == nil && old.ProjectID != nil:
		changes.ClearProject = true
	case projectID != nil && (old.ProjectID == nil || *projectID != *old.ProjectID):
		changes.ProjectID = projectID
	}
	return TaskUpdatedMsg{ID: old.ID, Changes: changes, RemindAt: remindAt}
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func (m Model) validateOptionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := model.ParseDate(s, m.opts.Location)
	return err
}

func (m Model) validateOptionalReminder(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := model.ParseRemindAt(s, m.opts.ReminderTime, m.opts.Location)
	return err
}
