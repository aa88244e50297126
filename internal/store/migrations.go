package store

// MigrationDef is one schema change. Statements run in order inside a single
// transaction together with the ledger insert.
type MigrationDef struct {
	Version    int
	Name       string
	Statements []string
}

// Migrations is the ordered list of schema migrations. Append only: a
// released version is never edited.
var Migrations = []MigrationDef{
	{
		Version: 1,
		Name:    "initial",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS migrations (
				version    INTEGER PRIMARY KEY,
				name       TEXT NOT NULL,
				applied_at DATETIME NOT NULL
			)`,
			`CREATE TABLE projects (
				id         TEXT PRIMARY KEY,
				name       TEXT NOT NULL,
				color      TEXT NOT NULL DEFAULT '#6366f1',
				icon       TEXT,
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE TABLE tasks (
				id         TEXT PRIMARY KEY,
				title      TEXT NOT NULL DEFAULT '',
				content    TEXT NOT NULL DEFAULT '{}',
				project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
				status     TEXT NOT NULL DEFAULT 'backlog'
					CHECK (status IN ('backlog', 'next', 'waiting', 'done')),
				due_date   DATETIME,
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE TABLE reminders (
				id         TEXT PRIMARY KEY,
				task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
				remind_at  DATETIME NOT NULL,
				is_sent    INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX idx_tasks_project_id ON tasks(project_id)`,
			`CREATE INDEX idx_tasks_status ON tasks(status)`,
			`CREATE INDEX idx_tasks_due_date ON tasks(due_date)`,
			`CREATE INDEX idx_reminders_task_id ON reminders(task_id)`,
			`CREATE INDEX idx_reminders_remind_at ON reminders(remind_at)`,
		},
	},
	{
		Version: 2,
		Name:    "reminders_pending_index",
		Statements: []string{
			`CREATE INDEX idx_reminders_pending ON reminders(is_sent, remind_at)`,
		},
	},
	{
		Version: 3,
		Name:    "tasks_column_order_index",
		Statements: []string{
			`CREATE INDEX idx_tasks_column_order ON tasks(project_id, status, sort_order)`,
		},
	},
}
