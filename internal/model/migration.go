package model

import "time"

// Migration is one row of the append-only schema ledger.
type Migration struct {
	Version   int       `json:"version" yaml:"version" db:"version"`
	Name      string    `json:"name" yaml:"name" db:"name"`
	AppliedAt time.Time `json:"applied_at" yaml:"applied_at" db:"applied_at"`
}

// MigrationStatus summarizes the schema state of a database.
type MigrationStatus struct {
	CurrentVersion int         `json:"current_version" yaml:"current_version"`
	PendingCount   int         `json:"pending_count" yaml:"pending_count"`
	Applied        []Migration `json:"applied" yaml:"applied"`
}
