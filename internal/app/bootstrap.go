package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nhle/taskdown/internal/autosave"
	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/kanban"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/notify"
	"github.com/nhle/taskdown/internal/permission"
	"github.com/nhle/taskdown/internal/query"
	"github.com/nhle/taskdown/internal/reminder"
	"github.com/nhle/taskdown/internal/state"
	"github.com/nhle/taskdown/internal/store"
)

// OpenOptions override the collaborators Open would build from config.
type OpenOptions struct {
	Logger *slog.Logger
	// Permission reports notification permission. Nil opens the OS keyring
	// and falls back to permission.Default when no keyring is available.
	Permission permission.Provider
	// Notifier delivers reminders. Nil picks one from reminders.notifier.
	Notifier notify.Notifier
	Now      func() time.Time
	// Migrations replaces the built-in schema migrations.
	Migrations []store.MigrationDef
}

// Services is an opened vault with every component wired together.
type Services struct {
	Config     *model.AppConfig
	State      *state.App
	Selection  *state.Selection
	Store      *store.SQLiteStore
	Cache      *cache.Cache
	Client     *query.Client
	Board      *kanban.Engine
	Scheduler  *reminder.Scheduler
	Permission permission.Provider

	logger     *slog.Logger
	migrations []store.MigrationDef
	stopWatch  func()

	mu     sync.Mutex
	savers []*autosave.Saver
}

// permissionSetter is implemented by providers that can persist a change.
type permissionSetter interface {
	Set(permission.Permission) error
}

// Open prepares the vault folder, opens its database and runs pending
// migrations. A failed migration does not fail Open: the vault opens
// read-only and the error is kept in State for display and Retry.
func Open(ctx context.Context, cfg *model.AppConfig, opts OpenOptions) (*Services, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	migrations := opts.Migrations
	if migrations == nil {
		migrations = store.Migrations
	}

	st := state.NewApp()
	st.SetVaultPath(cfg.Vault.Path)
	st.BeginInit()

	if err := os.MkdirAll(cfg.AssetsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating vault data dir: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.DatabasePath(), store.Options{
		BusyTimeout: cfg.Store.BusyTimeout,
		Logger:      logger,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	c := cache.New(cache.WithLogger(logger))
	client := query.New(s, c, query.Options{
		Timeout:  cfg.Store.Timeout,
		Logger:   logger,
		ReadOnly: st.ReadOnly,
		Now:      now,
	})

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifierFor(cfg.Reminders.Notifier, logger)
	}

	provider := opts.Permission
	if provider == nil {
		provider = openPermission(cfg.DataDir(), logger)
	}

	svc := &Services{
		Config:     cfg,
		State:      st,
		Selection:  state.NewSelection(),
		Store:      s,
		Cache:      c,
		Client:     client,
		Board:      kanban.NewEngine(client, kanban.Options{Logger: logger}),
		Permission: provider,
		logger:     logger,
		migrations: migrations,
	}
	svc.Scheduler = reminder.New(client, notifier, c, reminder.Options{
		Interval: cfg.Reminders.Interval,
		Warmup:   cfg.Reminders.Warmup,
		Logger:   logger,
		Now:      now,
	})
	svc.stopWatch = st.OnPermissionChange(svc.Scheduler.SetPermission)

	if err := svc.migrate(ctx); err != nil {
		logger.Error("vault opened read-only", "vault", cfg.Vault.Path, "error", err)
	}
	st.EndInit()
	return svc, nil
}

func notifierFor(kind string, logger *slog.Logger) notify.Notifier {
	if kind == "log" {
		return notify.LogNotifier{Logger: logger}
	}
	return notify.NewDesktopNotifier()
}

func openPermission(dir string, logger *slog.Logger) permission.Provider {
	ring, err := permission.OpenKeyring(dir)
	if err != nil {
		logger.Warn("keyring unavailable, notifications stay off until granted", "error", err)
		return permission.Static(permission.Default)
	}
	return ring
}

func (s *Services) migrate(ctx context.Context) error {
	m := store.NewMigrator(s.Store.DB(), s.migrations, s.logger)
	if _, err := m.Run(ctx); err != nil {
		s.State.SetReadOnlyMode(err.Error())
		return err
	}
	s.State.ClearReadOnlyMode()
	return nil
}

// Migrator returns a migrator over the migrations this vault was opened with.
func (s *Services) Migrator() *store.Migrator {
	return store.NewMigrator(s.Store.DB(), s.migrations, s.logger)
}

// Retry reruns pending migrations and leaves read-only mode on success.
func (s *Services) Retry(ctx context.Context) error {
	if err := s.migrate(ctx); err != nil {
		return err
	}
	s.logger.Info("migrations recovered, vault is writable again")
	return nil
}

// StartReminders reads the notification permission and starts the reminder
// loop when it is granted. Later permission changes start or stop it.
func (s *Services) StartReminders(ctx context.Context) error {
	p, err := s.Permission.Permission(ctx)
	if err != nil {
		return fmt.Errorf("reading notification permission: %w", err)
	}
	s.State.SetNotificationPermission(p)
	s.Scheduler.SetPermission(p)
	return nil
}

// SetNotificationPermission persists p when the provider supports it and
// applies it to the running app.
func (s *Services) SetNotificationPermission(p permission.Permission) error {
	if setter, ok := s.Permission.(permissionSetter); ok {
		if err := setter.Set(p); err != nil {
			return err
		}
	}
	s.State.SetNotificationPermission(p)
	return nil
}

// NoteSaver returns an auto-saver for a task's content. Close flushes it.
func (s *Services) NoteSaver(taskID string, onStatus func(autosave.Status)) *autosave.Saver {
	client := s.Client
	saver := autosave.New(func(ctx context.Context, content string) error {
		_, err := client.UpdateTask(ctx, taskID, model.TaskChanges{Content: &content})
		return err
	}, autosave.Options{
		Debounce: s.Config.Autosave.Debounce,
		Logger:   s.logger.With("task_id", taskID),
		OnStatus: onStatus,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.savers[:0]
	for _, old := range s.savers {
		if !old.Closed() {
			live = append(live, old)
		}
	}
	s.savers = append(live, saver)
	return saver
}

// Close stops the reminder loop, flushes unsaved notes and closes the store.
func (s *Services) Close(ctx context.Context) error {
	s.Scheduler.Stop()
	if s.stopWatch != nil {
		s.stopWatch()
	}

	s.mu.Lock()
	savers := s.savers
	s.savers = nil
	s.mu.Unlock()

	var errs []error
	for _, saver := range savers {
		if err := saver.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing note: %w", err))
		}
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}
