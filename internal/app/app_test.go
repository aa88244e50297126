package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/store"
	"github.com/nhle/taskdown/internal/ui/command"
	"github.com/nhle/taskdown/internal/ui/projectmgr"
	"github.com/nhle/taskdown/internal/ui/taskform"
)

// collect runs cmd and returns the messages it produced. Commands that
// block, such as the cache and reminder listeners, are abandoned.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run feeds every message cmd produces back into m, one level deep.
func run(m Model, cmd tea.Cmd) Model {
	for _, msg := range collect(cmd) {
		m, _ = update(m, msg)
	}
	return m
}

func runKey(m Model, k string) Model {
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	for _, msg := range collect(cmd) {
		var next tea.Cmd
		m, next = update(m, msg)
		m = run(m, next)
	}
	return m
}

func started(t *testing.T, svc *Services) Model {
	t.Helper()
	m := New(svc)
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = run(m, m.loadProjects())
	m = run(m, m.board.Load())
	return m
}

func TestMoveAcrossColumnsPersists(t *testing.T) {
	ctx := context.Background()
	svc := open(t, testConfig(t), OpenOptions{})
	defer svc.Close(ctx)

	task, err := svc.Client.CreateTask(ctx, model.NewTask{Title: "Ship it"})
	require.NoError(t, err)

	m := started(t, svc)
	require.Equal(t, 1, m.board.Count(model.StatusBacklog))

	m = runKey(m, "L")
	assert.Empty(t, m.flash)

	got, err := svc.Client.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNext, got.Status)
	assert.Equal(t, 1000, got.SortOrder)

	m = run(m, m.board.Load())
	assert.Equal(t, 1, m.board.Count(model.StatusNext))
	assert.Zero(t, m.board.Count(model.StatusBacklog))
}

func TestDoneKeyMovesToDoneColumn(t *testing.T) {
	ctx := context.Background()
	svc := open(t, testConfig(t), OpenOptions{})
	defer svc.Close(ctx)

	task, err := svc.Client.CreateTask(ctx, model.NewTask{Title: "Laundry"})
	require.NoError(t, err)

	m := started(t, svc)
	runKey(m, "x")

	got, err := svc.Client.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
}

func TestCreateFromFormAddsReminder(t *testing.T) {
	ctx := context.Background()
	svc := open(t, testConfig(t), OpenOptions{})
	defer svc.Close(ctx)

	m := started(t, svc)
	at := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	m, cmd := update(m, taskform.TaskCreatedMsg{
		Task:     model.NewTask{Title: "Dentist", Status: model.StatusNext, Content: model.EmptyContent},
		RemindAt: &at,
	})
	assert.Equal(t, ViewBoard, m.currentView)
	m = run(m, cmd)
	assert.Empty(t, m.flash)

	tasks, err := svc.Client.ListTasks(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.StatusNext, tasks[0].Status)

	reminders, err := svc.Client.ListReminders(ctx, tasks[0].ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.True(t, at.Equal(reminders[0].RemindAt))
}

func TestProjectCommandSwitchesContainer(t *testing.T) {
	ctx := context.Background()
	svc := open(t, testConfig(t), OpenOptions{})
	defer svc.Close(ctx)

	work, err := svc.Client.CreateProject(ctx, model.NewProject{Name: "Work"})
	require.NoError(t, err)

	m := started(t, svc)
	m.previousView = ViewBoard
	m, _ = update(m, command.CommandMsg{Command: command.Command{Verb: command.VerbProject, Arg: "work"}})

	require.NotNil(t, svc.Selection.ProjectID())
	assert.Equal(t, work.ID, *svc.Selection.ProjectID())
	assert.Contains(t, m.View(), "Taskdown: Work")

	m, _ = update(m, command.CommandMsg{Command: command.Command{Verb: command.VerbProject, Arg: "Nope"}})
	assert.Equal(t, `No project named "Nope"`, m.flash)

	m, _ = update(m, projectmgr.ChangedMsg{DeletedID: work.ID})
	assert.Nil(t, svc.Selection.ProjectID(), "deleting the shown project returns to the Inbox")
	assert.Contains(t, m.View(), "Taskdown: Inbox")
}

func TestProjectKeysCycleContainers(t *testing.T) {
	ctx := context.Background()
	svc := open(t, testConfig(t), OpenOptions{})
	defer svc.Close(ctx)

	home, err := svc.Client.CreateProject(ctx, model.NewProject{Name: "Home"})
	require.NoError(t, err)

	m := started(t, svc)
	m = runKey(m, "]")
	require.NotNil(t, m.board.ProjectID())
	assert.Equal(t, home.ID, *m.board.ProjectID())

	m = runKey(m, "]")
	assert.Nil(t, m.board.ProjectID(), "wraps back to the Inbox")

	m = runKey(m, "[")
	require.NotNil(t, m.board.ProjectID())
	m = runKey(m, "i")
	assert.Nil(t, m.board.ProjectID())
}

func TestReadOnlyBanner(t *testing.T) {
	ctx := context.Background()
	broken := append(append([]store.MigrationDef(nil), store.Migrations...), store.MigrationDef{
		Version:    99,
		Name:       "broken",
		Statements: []string{"ALTER TABLE no_such_table ADD COLUMN x TEXT"},
	})
	svc := open(t, testConfig(t), OpenOptions{Migrations: broken})
	defer svc.Close(ctx)

	m := started(t, svc)
	assert.Contains(t, m.View(), "Read-only")

	m, cmd := update(m, taskform.TaskCreatedMsg{Task: model.NewTask{Title: "x", Status: model.StatusBacklog}})
	m = run(m, cmd)
	assert.Contains(t, m.flash, "Could not create task")
}

func TestHelpAndCommandViews(t *testing.T) {
	ctx := context.Background()
	svc := open(t, testConfig(t), OpenOptions{})
	defer svc.Close(ctx)

	m := started(t, svc)
	m = runKey(m, "?")
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, ViewBoard, m.currentView)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(":")})
	assert.Equal(t, ViewCommand, m.currentView)
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, ViewBoard, m.currentView)
	assert.Contains(t, m.View(), "reminders off")
}
