package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Reminders.Interval)
	assert.Equal(t, 2*time.Second, cfg.Reminders.Warmup)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Autosave.Debounce)
	assert.Equal(t, "09:00", cfg.Reminders.DefaultTime)
	assert.Equal(t, "system", cfg.Display.Theme)
	assert.NotEmpty(t, cfg.Vault.Path)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Vault.Path = "/tmp/vault"
	cfg.Reminders.Interval = 30 * time.Second
	cfg.Reminders.Notifier = "log"
	cfg.Display.Theme = "dark"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vault", loaded.Vault.Path)
	assert.Equal(t, 30*time.Second, loaded.Reminders.Interval)
	assert.Equal(t, "log", loaded.Reminders.Notifier)
	assert.Equal(t, "dark", loaded.Display.Theme)
	assert.Equal(t, filepath.Join("/tmp/vault", ".taskdown", "data.db"), loaded.DatabasePath())
	assert.Equal(t, filepath.Join("/tmp/vault", ".taskdown", "assets"), loaded.AssetsDir())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TASKDOWN_VAULT_PATH", "/env/vault")
	t.Setenv("TASKDOWN_REMINDERS_INTERVAL", "5m")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/env/vault", cfg.Vault.Path)
	assert.Equal(t, 5*time.Minute, cfg.Reminders.Interval)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reminders:\n  notifier: pigeon\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pigeon")
}
