package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/notify"
	"github.com/nhle/taskdown/internal/permission"
	"github.com/nhle/taskdown/internal/richtext"
	"github.com/nhle/taskdown/internal/store"
	"github.com/nhle/taskdown/tests/testutil"
)

func testConfig(t *testing.T) *model.AppConfig {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Vault.Path = t.TempDir()
	cfg.Reminders.Notifier = "log"
	cfg.Autosave.Debounce = time.Hour
	return cfg
}

func open(t *testing.T, cfg *model.AppConfig, opts OpenOptions) *Services {
	t.Helper()
	opts.Logger = testutil.DiscardLogger()
	if opts.Permission == nil {
		opts.Permission = permission.Static(permission.Default)
	}
	svc, err := Open(context.Background(), cfg, opts)
	require.NoError(t, err)
	return svc
}

func TestOpenPreparesVault(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	svc := open(t, cfg, OpenOptions{})
	defer svc.Close(ctx)

	assert.DirExists(t, filepath.Join(cfg.Vault.Path, ".taskdown", "assets"))
	assert.FileExists(t, filepath.Join(cfg.Vault.Path, ".taskdown", "data.db"))

	snap := svc.State.Get()
	assert.True(t, snap.Initialized)
	assert.False(t, snap.Initializing)
	assert.False(t, snap.ReadOnly)
	assert.Equal(t, cfg.Vault.Path, snap.VaultPath)

	version, err := svc.Migrator().CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Migrations[len(store.Migrations)-1].Version, version)

	_, err = svc.Client.CreateProject(ctx, model.NewProject{Name: "Home"})
	assert.NoError(t, err)
}

func TestFailedMigrationOpensReadOnly(t *testing.T) {
	ctx := context.Background()
	broken := append(append([]store.MigrationDef(nil), store.Migrations...), store.MigrationDef{
		Version:    99,
		Name:       "broken",
		Statements: []string{"ALTER TABLE no_such_table ADD COLUMN x TEXT"},
	})
	svc := open(t, testConfig(t), OpenOptions{Migrations: broken})
	defer svc.Close(ctx)

	snap := svc.State.Get()
	require.True(t, snap.ReadOnly)
	assert.Contains(t, snap.MigrationError, "broken")

	_, err := svc.Client.CreateTask(ctx, model.NewTask{Title: "x"})
	assert.ErrorIs(t, err, store.ErrReadOnly)
	tasks, err := svc.Client.ListTasks(ctx, nil)
	require.NoError(t, err, "reads keep working")
	assert.Empty(t, tasks)

	assert.Error(t, svc.Retry(ctx))
	assert.True(t, svc.State.ReadOnly())

	svc.migrations = store.Migrations
	require.NoError(t, svc.Retry(ctx))
	assert.False(t, svc.State.ReadOnly())
	_, err = svc.Client.CreateTask(ctx, model.NewTask{Title: "x"})
	assert.NoError(t, err)
}

func TestNotifierFromConfig(t *testing.T) {
	assert.IsType(t, notify.LogNotifier{}, notifierFor("log", testutil.DiscardLogger()))
	assert.IsType(t, &notify.DesktopNotifier{}, notifierFor("desktop", testutil.DiscardLogger()))
}

func TestPermissionDrivesScheduler(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Reminders.Warmup = time.Hour
	svc := open(t, cfg, OpenOptions{Permission: permission.Static(permission.Granted)})
	defer svc.Close(ctx)

	assert.False(t, svc.Scheduler.Running(), "nothing polls until reminders are started")
	require.NoError(t, svc.StartReminders(ctx))
	assert.True(t, svc.Scheduler.Running())
	assert.Equal(t, permission.Granted, svc.State.Permission())

	require.NoError(t, svc.SetNotificationPermission(permission.Denied))
	assert.False(t, svc.Scheduler.Running())

	require.NoError(t, svc.SetNotificationPermission(permission.Granted))
	assert.True(t, svc.Scheduler.Running())
}

func TestCloseFlushesNotes(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	svc := open(t, cfg, OpenOptions{})

	task, err := svc.Client.CreateTask(ctx, model.NewTask{Title: "Notes"})
	require.NoError(t, err)

	saver := svc.NoteSaver(task.ID, nil)
	saver.Change(richtext.FromPlainText("remember the milk"))
	require.NoError(t, svc.Close(ctx))

	reopened := open(t, cfg, OpenOptions{})
	defer reopened.Close(ctx)
	got, err := reopened.Client.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "remember the milk", richtext.PlainText(got.Content))
}

func TestOpenFailsWhenVaultIsAFile(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(cfg.Vault.Path, ".taskdown")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := Open(context.Background(), cfg, OpenOptions{Logger: testutil.DiscardLogger()})
	assert.Error(t, err)
}
