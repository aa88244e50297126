package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/permission"
)

func ptr(s string) *string { return &s }

func TestSelectProjectClearsTask(t *testing.T) {
	s := NewSelection()
	assert.Nil(t, s.ProjectID(), "starts on the Inbox")

	s.SelectTask(ptr("t1"))
	s.SelectProject(ptr("p1"))
	assert.Equal(t, "p1", *s.ProjectID())
	assert.Nil(t, s.TaskID())

	id := "t2"
	s.SelectTask(&id)
	id = "mutated"
	assert.Equal(t, "t2", *s.TaskID(), "selection keeps its own copy")

	s.SelectProject(nil)
	assert.Nil(t, s.ProjectID())
}

func TestSidebar(t *testing.T) {
	s := NewSelection()
	assert.True(t, s.ToggleSidebar())
	assert.False(t, s.ToggleSidebar())
	s.SetSidebarCollapsed(true)
	assert.True(t, s.Get().SidebarCollapsed)

	s.SelectProject(ptr("p"))
	s.Reset()
	assert.Equal(t, SelectionSnapshot{}, s.Get())
}

func TestSelectionLastWriteWins(t *testing.T) {
	s := NewSelection()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SelectTask(ptr("x"))
		}()
	}
	wg.Wait()
	assert.Equal(t, "x", *s.TaskID())
}

func TestReadOnlyMode(t *testing.T) {
	a := NewApp()
	assert.False(t, a.ReadOnly())

	a.SetReadOnlyMode("migration 2 failed")
	got := a.Get()
	assert.True(t, got.ReadOnly)
	assert.Equal(t, "migration 2 failed", got.MigrationError)

	a.ClearReadOnlyMode()
	assert.False(t, a.ReadOnly())
	assert.Empty(t, a.Get().MigrationError)
}

func TestInitLifecycle(t *testing.T) {
	a := NewApp()
	a.SetVaultPath("/notes")
	a.BeginInit()
	assert.True(t, a.Get().Initializing)
	a.EndInit()
	got := a.Get()
	assert.False(t, got.Initializing)
	assert.True(t, got.Initialized)
	assert.Equal(t, "/notes", got.VaultPath)

	a.Reset()
	assert.Equal(t, AppSnapshot{Permission: permission.Default}, a.Get())
}

func TestPermissionListeners(t *testing.T) {
	a := NewApp()
	var seen []permission.Permission
	cancel := a.OnPermissionChange(func(p permission.Permission) { seen = append(seen, p) })

	a.SetNotificationPermission(permission.Granted)
	a.SetNotificationPermission(permission.Granted)
	a.SetNotificationPermission(permission.Denied)
	require.Equal(t, []permission.Permission{permission.Granted, permission.Denied}, seen)

	cancel()
	a.SetNotificationPermission(permission.Granted)
	assert.Len(t, seen, 2)
	assert.Equal(t, permission.Granted, a.Permission())
}
