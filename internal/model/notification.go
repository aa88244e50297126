package model

// Notification is the payload handed to the OS notification dispatcher when a
// reminder fires.
type Notification struct {
	ReminderID string `json:"reminder_id"`
	TaskID     string `json:"task_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}
