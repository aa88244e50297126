package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdown/internal/model"
)

func newConfigCmd(r *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, r, r.cfg)
		},
	})
	cmd.AddCommand(newConfigInitCmd(r))
	return cmd
}

func newConfigInitCmd(r *Root) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				_, err := os.Stat(r.ConfigPath)
				if err == nil {
					return writeErr(cmd, fmt.Errorf("%s already exists (use --force to overwrite)", r.ConfigPath))
				}
				if !errors.Is(err, fs.ErrNotExist) {
					return writeErr(cmd, err)
				}
			}

			cfg := model.DefaultConfig()
			if r.VaultPath != "" {
				cfg.Vault.Path = r.VaultPath
			}
			if err := model.SaveConfig(r.ConfigPath, cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, r, map[string]string{"written": r.ConfigPath})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
