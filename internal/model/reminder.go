package model

import "time"

// Reminder schedules one notification for a task. IsSent only ever moves
// from false to true.
type Reminder struct {
	ID        string    `json:"id" yaml:"id" db:"id"`
	TaskID    string    `json:"task_id" yaml:"task_id" db:"task_id"`
	RemindAt  time.Time `json:"remind_at" yaml:"remind_at" db:"remind_at"`
	IsSent    bool      `json:"is_sent" yaml:"is_sent" db:"is_sent"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" db:"created_at"`
}

// PendingReminder is a due, unsent reminder joined with its task. TaskTitle
// and TaskStatus are nil when the task no longer exists.
type PendingReminder struct {
	Reminder
	TaskTitle  *string     `json:"task_title,omitempty" yaml:"task_title,omitempty" db:"task_title"`
	TaskStatus *TaskStatus `json:"task_status,omitempty" yaml:"task_status,omitempty" db:"task_status"`
}

// TaskMissing reports whether the owning task was gone at query time.
func (p PendingReminder) TaskMissing() bool {
	return p.TaskTitle == nil
}

// NewReminder holds the caller-supplied fields for a reminder insert.
type NewReminder struct {
	TaskID   string
	RemindAt time.Time
}

// ReminderChanges is a partial update of a reminder.
type ReminderChanges struct {
	RemindAt *time.Time
}
