package store

import (
	"context"
	"time"

	"github.com/nhle/taskdown/internal/model"
)

// TaskFilter selects the tasks of one container.
type TaskFilter struct {
	ProjectID   *string           // project UUID, or nil for the Inbox (NULL project_id)
	AllProjects bool              // ignore ProjectID and return every task
	Status      *model.TaskStatus // one column, or nil (all)
	Query       string            // case-insensitive search in title
}

// TaskUpdate carries a task row before and after a mutation so callers can
// tell which containers it left and entered.
type TaskUpdate struct {
	Before model.Task
	After  model.Task
}

// ProjectChanged reports whether the update moved the task between containers.
func (u TaskUpdate) ProjectChanged() bool {
	a, b := u.Before.ProjectID, u.After.ProjectID
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}

// ColumnPlacement is the final position of one task in a renumbered column.
type ColumnPlacement struct {
	TaskID    string
	SortOrder int
}

// Store defines the persistence interface for projects, tasks and reminders.
// Reads report a missing row as a nil entity; mutations report it as
// ErrNotFound.
type Store interface {
	// === Projects ===

	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	CreateProject(ctx context.Context, in model.NewProject) (*model.Project, error)
	UpdateProject(ctx context.Context, id string, changes model.ProjectChanges) (*model.Project, error)
	// DeleteProject removes a project and detaches its tasks to the Inbox.
	// It returns the number of detached tasks.
	DeleteProject(ctx context.Context, id string) (int64, error)

	// === Tasks ===

	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, changes model.TaskChanges) (*TaskUpdate, error)
	// DeleteTask removes a task together with its reminders and returns the
	// deleted row.
	DeleteTask(ctx context.Context, id string) (*model.Task, error)
	// MoveTask sets status and sort order in a single write.
	MoveTask(ctx context.Context, id string, status model.TaskStatus, sortOrder int) (*TaskUpdate, error)
	// PlaceInColumn moves a task into a column and rewrites the sort order of
	// every listed task, all in one transaction.
	PlaceInColumn(ctx context.Context, id string, status model.TaskStatus, placements []ColumnPlacement) (*TaskUpdate, error)

	// === Reminders ===

	ListReminders(ctx context.Context, taskID string) ([]model.Reminder, error)
	GetReminder(ctx context.Context, id string) (*model.Reminder, error)
	CreateReminder(ctx context.Context, in model.NewReminder) (*model.Reminder, error)
	UpdateReminder(ctx context.Context, id string, changes model.ReminderChanges) (*model.Reminder, error)
	DeleteReminder(ctx context.Context, id string) (*model.Reminder, error)
	DeleteTaskReminders(ctx context.Context, taskID string) (int64, error)
	// PendingReminders returns unsent reminders due at or before now, joined
	// with their task, ordered by remind_at.
	PendingReminders(ctx context.Context, now time.Time) ([]model.PendingReminder, error)
	// ClaimReminder marks a reminder sent. It reports false when the reminder
	// was already sent or no longer exists.
	ClaimReminder(ctx context.Context, id string) (bool, error)

	// === Lifecycle ===

	Close() error
}
