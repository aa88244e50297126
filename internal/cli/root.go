package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdown/internal/app"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/permission"
)

// Root holds the persistent flags and the configuration they resolve to.
type Root struct {
	ConfigPath string
	VaultPath  string
	Format     string
	Notify     string

	cfg    *model.AppConfig
	logger *slog.Logger
}

// NewRootCmd builds the taskdown command tree.
func NewRootCmd() *cobra.Command {
	root := &Root{}

	cmd := &cobra.Command{
		Use:          "taskdown",
		Short:        "Local-first kanban to-do board",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		Example: strings.TrimSpace(`
  # Open the board
  taskdown

  # Scriptable commands
  taskdown tasks add "Buy milk" --status next --remind "2026-05-01 09:00"
  taskdown tasks move <task-id> --status done
  taskdown reminders pending --format yaml
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, root)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&root.ConfigPath, "config", envOr("TASKDOWN_CONFIG", model.DefaultConfigPath()), "Path to config file")
	flags.StringVar(&root.VaultPath, "vault", "", "Vault folder (overrides vault.path)")
	flags.StringVar(&root.Format, "format", "json", "Output format (json|yaml)")
	flags.StringVar(&root.Notify, "notify", "", "Notification permission for this run (granted|denied|default)")

	cmd.AddCommand(newProjectsCmd(root))
	cmd.AddCommand(newTasksCmd(root))
	cmd.AddCommand(newRemindersCmd(root))
	cmd.AddCommand(newMigrateCmd(root))
	cmd.AddCommand(newSchedulerCmd(root))
	cmd.AddCommand(newConfigCmd(root))

	return cmd
}

// load resolves configuration and flags before any command runs.
func (r *Root) load(cmd *cobra.Command) error {
	switch r.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("--format %q: want json or yaml", r.Format)
	}
	if r.Notify != "" {
		if _, err := permission.Parse(r.Notify); err != nil {
			return fmt.Errorf("--notify: %w", err)
		}
	}

	cfg, err := model.LoadConfig(r.ConfigPath)
	if err != nil {
		return err
	}
	if r.VaultPath != "" {
		cfg.Vault.Path = r.VaultPath
	}
	r.cfg = cfg

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	r.logger = logger
	return nil
}

// open opens the vault for one command. The caller closes it.
func (r *Root) open(ctx context.Context, logger *slog.Logger) (*app.Services, error) {
	opts := app.OpenOptions{Logger: logger}
	if r.Notify != "" {
		p, err := permission.Parse(r.Notify)
		if err != nil {
			return nil, err
		}
		opts.Permission = permission.Static(p)
	}
	return app.Open(ctx, r.cfg, opts)
}

// withServices opens the vault, runs fn and closes the vault again.
func (r *Root) withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Services) error) error {
	ctx := contextOf(cmd)
	svc, err := r.open(ctx, r.logger)
	if err != nil {
		return writeErr(cmd, err)
	}
	runErr := fn(ctx, svc)
	closeErr := svc.Close(context.WithoutCancel(ctx))
	if runErr != nil {
		return writeErr(cmd, runErr)
	}
	if closeErr != nil {
		return writeErr(cmd, closeErr)
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, r *Root, v any) error {
	return write(cmd.OutOrStdout(), r.Format, map[string]any{"data": v})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
