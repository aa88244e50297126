// Package state holds the small pieces of UI and application state shared
// between the board and the background services.
package state

import "sync"

// SelectionSnapshot is a copy of the selection at one moment.
type SelectionSnapshot struct {
	ProjectID        *string // nil is the Inbox
	TaskID           *string
	SidebarCollapsed bool
}

// Selection tracks the selected project and task. Writes are last-wins.
type Selection struct {
	mu  sync.RWMutex
	cur SelectionSnapshot
}

// NewSelection returns a selection on the Inbox with nothing selected.
func NewSelection() *Selection {
	return &Selection{}
}

// Get returns a copy of the current selection.
func (s *Selection) Get() SelectionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// ProjectID returns the selected project, nil for the Inbox.
func (s *Selection) ProjectID() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.ProjectID
}

// TaskID returns the selected task or nil.
func (s *Selection) TaskID() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.TaskID
}

// SelectProject switches container and clears the selected task.
func (s *Selection) SelectProject(id *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.ProjectID = clone(id)
	s.cur.TaskID = nil
}

// SelectTask selects a task, or clears the selection when id is nil.
func (s *Selection) SelectTask(id *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.TaskID = clone(id)
}

// ToggleSidebar flips the sidebar and returns the new collapsed state.
func (s *Selection) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.SidebarCollapsed = !s.cur.SidebarCollapsed
	return s.cur.SidebarCollapsed
}

func (s *Selection) SetSidebarCollapsed(collapsed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.SidebarCollapsed = collapsed
}

// Reset returns to the Inbox with the sidebar expanded.
func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = SelectionSnapshot{}
}

func clone(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
