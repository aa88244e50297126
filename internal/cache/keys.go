package cache

// Cache keys. A key names one query result; mutations invalidate the keys
// whose results they may have changed.
const (
	KeyProjects         = "projects"
	KeyPendingReminders = "reminders:pending"

	// PrefixTask matches every single-task entry.
	PrefixTask = "task:"
)

// ProjectKey is the key of a single project.
func ProjectKey(id string) string {
	return "project:" + id
}

// TasksKey is the key of a container's task list. A nil project is the Inbox.
func TasksKey(projectID *string) string {
	if projectID == nil {
		return "tasks:null"
	}
	return "tasks:" + *projectID
}

// TaskKey is the key of a single task.
func TaskKey(id string) string {
	return PrefixTask + id
}

// TaskRemindersKey is the key of one task's reminder list.
func TaskRemindersKey(taskID string) string {
	return "reminders:task:" + taskID
}
