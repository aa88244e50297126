package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/kanban"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/permission"
	"github.com/nhle/taskdown/internal/ui/detail"
	"github.com/nhle/taskdown/internal/ui/taskform"
)

// projectsLoadedMsg carries the sidebar's project list.
type projectsLoadedMsg struct {
	projects []model.Project
	err      error
}

// cacheEventMsg wraps a cache change so the board can refetch.
type cacheEventMsg struct {
	event cache.Event
}

// opResultMsg reports the outcome of a write started from the board.
type opResultMsg struct {
	op  string
	err error
}

// moveResultMsg reports a finished kanban move.
type moveResultMsg struct {
	req kanban.MoveRequest
	err error
}

// editReadyMsg carries the task to open in the edit form.
type editReadyMsg struct {
	task *model.Task
	err  error
}

// remindersLoadedMsg refreshes the reminders shown in the note editor.
type remindersLoadedMsg struct {
	taskID    string
	reminders []model.Reminder
}

// retryResultMsg reports a migration retry.
type retryResultMsg struct{ err error }

// startRemindersMsg reports the permission check made at startup.
type startRemindersMsg struct{ err error }

func (m Model) loadProjects() tea.Cmd {
	c := m.svc.Client
	return func() tea.Msg {
		projects, err := c.ListProjects(context.Background())
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

// waitForCacheEvent blocks on the subscription. Call it again after each
// event to keep listening.
func (m Model) waitForCacheEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return cacheEventMsg{event: e}
	}
}

func (m Model) startReminders() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return startRemindersMsg{err: svc.StartReminders(context.Background())}
	}
}

// moveTask runs a reorder through the engine. The cache reflects the move
// before the store confirms it.
func (m Model) moveTask(req kanban.MoveRequest) tea.Cmd {
	engine := m.svc.Board
	return func() tea.Msg {
		_, err := engine.Move(context.Background(), req)
		return moveResultMsg{req: req, err: err}
	}
}

// createTask inserts a task at the head of its column and adds the optional
// reminder.
func (m Model) createTask(in model.NewTask, remindAt *time.Time) tea.Cmd {
	c, board := m.svc.Client, m.svc.Board
	return func() tea.Msg {
		ctx := context.Background()
		t, err := board.Create(ctx, in)
		if err != nil {
			return opResultMsg{op: "create task", err: err}
		}
		if remindAt != nil {
			if _, err := c.CreateReminder(ctx, model.NewReminder{TaskID: t.ID, RemindAt: *remindAt}); err != nil {
				return opResultMsg{op: "add reminder", err: err}
			}
		}
		return opResultMsg{op: "create task"}
	}
}

func (m Model) updateTask(msg taskform.TaskUpdatedMsg) tea.Cmd {
	c := m.svc.Client
	return func() tea.Msg {
		ctx := context.Background()
		if !msg.Changes.Empty() {
			if _, err := c.UpdateTask(ctx, msg.ID, msg.Changes); err != nil {
				return opResultMsg{op: "update task", err: err}
			}
		}
		if msg.RemindAt != nil {
			if _, err := c.CreateReminder(ctx, model.NewReminder{TaskID: msg.ID, RemindAt: *msg.RemindAt}); err != nil {
				return opResultMsg{op: "add reminder", err: err}
			}
		}
		return opResultMsg{op: "update task"}
	}
}

func (m Model) deleteTask(id string) tea.Cmd {
	c := m.svc.Client
	return func() tea.Msg {
		return opResultMsg{op: "delete task", err: c.DeleteTask(context.Background(), id)}
	}
}

func (m Model) loadForEdit(id string) tea.Cmd {
	c := m.svc.Client
	return func() tea.Msg {
		t, err := c.GetTask(context.Background(), id)
		return editReadyMsg{task: t, err: err}
	}
}

// loadDetail reads a task, its project name and its reminders for the note
// editor.
func (m Model) loadDetail(id string) tea.Cmd {
	c := m.svc.Client
	return func() tea.Msg {
		ctx := context.Background()
		t, err := c.GetTask(ctx, id)
		if err != nil || t == nil {
			return detail.LoadedMsg{Err: err}
		}
		msg := detail.LoadedMsg{Task: t}
		if t.ProjectID != nil {
			if p, err := c.GetProject(ctx, *t.ProjectID); err == nil && p != nil {
				msg.ProjectName = p.Name
			}
		}
		msg.Reminders, _ = c.ListReminders(ctx, id)
		return msg
	}
}

func (m Model) loadReminders(taskID string) tea.Cmd {
	c := m.svc.Client
	return func() tea.Msg {
		reminders, err := c.ListReminders(context.Background(), taskID)
		if err != nil {
			return nil
		}
		return remindersLoadedMsg{taskID: taskID, reminders: reminders}
	}
}

func (m Model) retryMigrations() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return retryResultMsg{err: svc.Retry(context.Background())}
	}
}

func (m Model) setPermission(p permission.Permission) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return opResultMsg{op: "set notification permission", err: svc.SetNotificationPermission(p)}
	}
}
