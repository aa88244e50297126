package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the kanban column a task lives in.
type TaskStatus string

// Task status constants, in board order.
const (
	StatusBacklog TaskStatus = "backlog"
	StatusNext    TaskStatus = "next"
	StatusWaiting TaskStatus = "waiting"
	StatusDone    TaskStatus = "done"
)

// Statuses lists every column in the order the board renders them.
var Statuses = []TaskStatus{StatusBacklog, StatusNext, StatusWaiting, StatusDone}

// EmptyContent is the serialized empty rich document.
const EmptyContent = "{}"

// Valid reports whether s is one of the four kanban columns.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusNext, StatusWaiting, StatusDone:
		return true
	}
	return false
}

// Label returns the column heading.
func (s TaskStatus) Label() string {
	switch s {
	case StatusBacklog:
		return "Backlog"
	case StatusNext:
		return "Next"
	case StatusWaiting:
		return "Waiting"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// ParseStatus converts user input into a TaskStatus.
func ParseStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q (want backlog, next, waiting or done)", s)
	}
	return st, nil
}

// Task is a single to-do item with a rich-text note.
type Task struct {
	ID        string     `json:"id" yaml:"id" db:"id"`
	Title     string     `json:"title" yaml:"title" db:"title"`
	Content   string     `json:"content" yaml:"content" db:"content"`
	ProjectID *string    `json:"project_id" yaml:"project_id" db:"project_id"`
	Status    TaskStatus `json:"status" yaml:"status" db:"status"`
	DueDate   *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty" db:"due_date"`
	SortOrder int        `json:"sort_order" yaml:"sort_order" db:"sort_order"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

// InInbox reports whether the task has no project.
func (t Task) InInbox() bool {
	return t.ProjectID == nil
}

// NewTask holds the caller-supplied fields for a task insert.
type NewTask struct {
	Title     string
	Content   string
	ProjectID *string
	Status    TaskStatus
	DueDate   *time.Time
	SortOrder int
}

// TaskChanges is a partial update. Nil fields are left untouched; the Clear
// flags set the matching nullable column to NULL.
type TaskChanges struct {
	Title        *string
	Content      *string
	ProjectID    *string
	ClearProject bool
	Status       *TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
	SortOrder    *int
}

// Empty reports whether the changes carry no field at all.
func (c TaskChanges) Empty() bool {
	return c.Title == nil && c.Content == nil && c.ProjectID == nil && !c.ClearProject &&
		c.Status == nil && c.DueDate == nil && !c.ClearDueDate && c.SortOrder == nil
}

// MovesProject reports whether applying c changes the task's container.
func (c TaskChanges) MovesProject(current *string) bool {
	switch {
	case c.ClearProject:
		return current != nil
	case c.ProjectID != nil:
		return current == nil || *current != *c.ProjectID
	}
	return false
}

// IsOverdue reports whether the task has a due date before now and is not done.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusDone
}
