package model

import "time"

// DefaultProjectColor is assigned to projects created without a color.
const DefaultProjectColor = "#6366f1"

// Project is a grouping container for tasks. Deleting a project moves its
// tasks back to the Inbox.
type Project struct {
	ID        string    `json:"id" yaml:"id" db:"id"`
	Name      string    `json:"name" yaml:"name" db:"name"`
	Color     string    `json:"color" yaml:"color" db:"color"`
	Icon      *string   `json:"icon,omitempty" yaml:"icon,omitempty" db:"icon"`
	SortOrder int       `json:"sort_order" yaml:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

// NewProject holds the caller-supplied fields for a project insert.
type NewProject struct {
	Name      string
	Color     string
	Icon      *string
	SortOrder int
}

// ProjectChanges is a partial update. Nil fields are left untouched.
type ProjectChanges struct {
	Name      *string
	Color     *string
	Icon      *string
	ClearIcon bool
	SortOrder *int
}

// Empty reports whether the changes carry no field at all.
func (c ProjectChanges) Empty() bool {
	return c.Name == nil && c.Color == nil && c.Icon == nil && !c.ClearIcon && c.SortOrder == nil
}
