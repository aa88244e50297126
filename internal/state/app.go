package state

import (
	"sync"

	"github.com/nhle/taskdown/internal/permission"
)

// AppSnapshot is a copy of the application state at one moment.
type AppSnapshot struct {
	VaultPath      string
	Initialized    bool
	Initializing   bool
	ReadOnly       bool
	MigrationError string
	Permission     permission.Permission
}

// App tracks vault lifecycle, read-only mode and notification permission.
type App struct {
	mu        sync.RWMutex
	cur       AppSnapshot
	listeners map[int]func(permission.Permission)
	nextID    int
}

// NewApp returns state for a vault that has not been opened yet.
func NewApp() *App {
	return &App{
		cur:       AppSnapshot{Permission: permission.Default},
		listeners: make(map[int]func(permission.Permission)),
	}
}

// Get returns a copy of the current state.
func (a *App) Get() AppSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cur
}

// ReadOnly reports whether mutations are currently refused.
func (a *App) ReadOnly() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cur.ReadOnly
}

func (a *App) SetVaultPath(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur.VaultPath = path
}

// BeginInit marks the vault as opening.
func (a *App) BeginInit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur.Initializing = true
	a.cur.Initialized = false
}

// EndInit marks the vault as open.
func (a *App) EndInit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur.Initializing = false
	a.cur.Initialized = true
}

// SetReadOnlyMode refuses mutations and records why.
func (a *App) SetReadOnlyMode(migrationError string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur.ReadOnly = true
	a.cur.MigrationError = migrationError
}

func (a *App) ClearReadOnlyMode() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur.ReadOnly = false
	a.cur.MigrationError = ""
}

// Permission returns the last known notification permission.
func (a *App) Permission() permission.Permission {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cur.Permission
}

// SetNotificationPermission records p and, when it changed, calls every
// listener registered with OnPermissionChange.
func (a *App) SetNotificationPermission(p permission.Permission) {
	a.mu.Lock()
	if a.cur.Permission == p {
		a.mu.Unlock()
		return
	}
	a.cur.Permission = p
	fns := make([]func(permission.Permission), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// OnPermissionChange registers fn and returns a function that removes it.
func (a *App) OnPermissionChange(fn func(permission.Permission)) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

// Reset forgets everything except registered listeners.
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur = AppSnapshot{Permission: permission.Default}
}
