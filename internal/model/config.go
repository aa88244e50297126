package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// VaultConfig locates the user's vault folder.
type VaultConfig struct {
	// Path is the vault root. The database lives in <Path>/.taskdown/data.db.
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Timeout bounds every individual store call.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`

	// BusyTimeout is handed to SQLite's busy_timeout pragma.
	BusyTimeout time.Duration `mapstructure:"busy_timeout" json:"busy_timeout" yaml:"busy_timeout"`
}

// RemindersConfig controls the reminder scheduler.
type RemindersConfig struct {
	Interval time.Duration `mapstructure:"interval" json:"interval" yaml:"interval"`
	Warmup   time.Duration `mapstructure:"warmup" json:"warmup" yaml:"warmup"`

	// Notifier selects the delivery backend: "desktop" or "log".
	Notifier string `mapstructure:"notifier" json:"notifier" yaml:"notifier"`

	// DefaultTime is the clock time used when a reminder is given as a bare date.
	DefaultTime string `mapstructure:"default_time" json:"default_time" yaml:"default_time"`
}

// AutosaveConfig controls note auto-save.
type AutosaveConfig struct {
	Debounce time.Duration `mapstructure:"debounce" json:"debounce" yaml:"debounce"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// Theme is "system", "light" or "dark".
	Theme string `mapstructure:"theme" json:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Vault     VaultConfig     `mapstructure:"vault" json:"vault" yaml:"vault"`
	Store     StoreConfig     `mapstructure:"store" json:"store" yaml:"store"`
	Reminders RemindersConfig `mapstructure:"reminders" json:"reminders" yaml:"reminders"`
	Autosave  AutosaveConfig  `mapstructure:"autosave" json:"autosave" yaml:"autosave"`
	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log"`
	Display   DisplayConfig   `mapstructure:"display" json:"display" yaml:"display"`
}

// DataDir returns <vault>/.taskdown.
func (c *AppConfig) DataDir() string {
	return filepath.Join(c.Vault.Path, ".taskdown")
}

// DatabasePath returns the location of the vault database.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.DataDir(), "data.db")
}

// AssetsDir returns the folder pasted images are written to.
func (c *AppConfig) AssetsDir() string {
	return filepath.Join(c.DataDir(), "assets")
}

// DefaultConfigPath returns ~/.config/taskdown/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskdown", "config.yaml")
}

func defaultVaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Taskdown")
}

var defaults = map[string]any{
	"vault.path":             "",
	"store.timeout":          "5s",
	"store.busy_timeout":     "5s",
	"reminders.interval":     "60s",
	"reminders.warmup":       "2s",
	"reminders.notifier":     "desktop",
	"reminders.default_time": "09:00",
	"autosave.debounce":      "500ms",
	"log.level":              "info",
	"log.format":             "text",
	"display.theme":          "system",
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Vault: VaultConfig{Path: defaultVaultPath()},
		Store: StoreConfig{
			Timeout:     5 * time.Second,
			BusyTimeout: 5 * time.Second,
		},
		Reminders: RemindersConfig{
			Interval:    time.Minute,
			Warmup:      2 * time.Second,
			Notifier:    "desktop",
			DefaultTime: "09:00",
		},
		Autosave: AutosaveConfig{Debounce: 500 * time.Millisecond},
		Log:      LogConfig{Level: "info", Format: "text"},
		Display:  DisplayConfig{Theme: "system"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// TASKDOWN_* environment variables override file values (TASKDOWN_VAULT_PATH
// for vault.path). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Vault.Path == "" {
		cfg.Vault.Path = defaultVaultPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the runtime cannot work with.
func (c *AppConfig) Validate() error {
	if c.Reminders.Interval <= 0 {
		return fmt.Errorf("reminders.interval must be positive, got %s", c.Reminders.Interval)
	}
	if c.Reminders.Warmup < 0 {
		return fmt.Errorf("reminders.warmup must not be negative, got %s", c.Reminders.Warmup)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive, got %s", c.Store.Timeout)
	}
	if _, err := time.Parse("15:04", c.Reminders.DefaultTime); err != nil {
		return fmt.Errorf("reminders.default_time %q: want HH:MM", c.Reminders.DefaultTime)
	}
	switch c.Reminders.Notifier {
	case "desktop", "log":
	default:
		return fmt.Errorf("reminders.notifier %q: want desktop or log", c.Reminders.Notifier)
	}
	switch c.Display.Theme {
	case "system", "light", "dark":
	default:
		return fmt.Errorf("display.theme %q: want system, light or dark", c.Display.Theme)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("vault.path", cfg.Vault.Path)
	v.Set("store.timeout", cfg.Store.Timeout.String())
	v.Set("store.busy_timeout", cfg.Store.BusyTimeout.String())
	v.Set("reminders.interval", cfg.Reminders.Interval.String())
	v.Set("reminders.warmup", cfg.Reminders.Warmup.String())
	v.Set("reminders.notifier", cfg.Reminders.Notifier)
	v.Set("reminders.default_time", cfg.Reminders.DefaultTime)
	v.Set("autosave.debounce", cfg.Autosave.Debounce.String())
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("display.theme", cfg.Display.Theme)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
