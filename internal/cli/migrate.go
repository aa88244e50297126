package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdown/internal/app"
	"github.com/nhle/taskdown/internal/model"
)

// migrationView is the vault's schema state as printed by migrate.
type migrationView struct {
	model.MigrationStatus `yaml:",inline"`
	ReadOnly              bool   `json:"read_only" yaml:"read_only"`
	MigrationError        string `json:"migration_error,omitempty" yaml:"migration_error,omitempty"`
}

func newMigrateCmd(r *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: "Opening a vault applies pending migrations. migrate retries them after a " +
			"failure and reports the schema version; it fails while the vault stays read-only.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				if svc.State.ReadOnly() {
					if err := svc.Retry(ctx); err != nil {
						return err
					}
				}
				return writeMigrationStatus(ctx, cmd, r, svc)
			})
		},
	}
	cmd.AddCommand(newMigrateStatusCmd(r))
	return cmd
}

func newMigrateStatusCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the schema version and migration history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				return writeMigrationStatus(ctx, cmd, r, svc)
			})
		},
	}
}

func writeMigrationStatus(ctx context.Context, cmd *cobra.Command, r *Root, svc *app.Services) error {
	status, err := svc.Migrator().Status(ctx)
	if err != nil {
		return err
	}
	snap := svc.State.Get()
	return writeOut(cmd, r, migrationView{
		MigrationStatus: status,
		ReadOnly:        snap.ReadOnly,
		MigrationError:  snap.MigrationError,
	})
}
