package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskdown/internal/app"
	"github.com/nhle/taskdown/internal/theme"
)

const logFileName = "taskdown.log"

// runBoard opens the vault and runs the kanban board. The terminal belongs to
// the board, so logs go to <vault>/.taskdown/taskdown.log.
func runBoard(cmd *cobra.Command, r *Root) error {
	ctx := contextOf(cmd)

	dir := r.cfg.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeErr(cmd, fmt.Errorf("creating %s: %w", dir, err))
	}
	logFile, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return writeErr(cmd, fmt.Errorf("opening log file: %w", err))
	}
	defer logFile.Close()

	logger, err := newLogger(logFile, r.cfg.Log)
	if err != nil {
		return writeErr(cmd, err)
	}
	theme.Apply(r.cfg.Display.Theme)

	svc, err := r.open(ctx, logger)
	if err != nil {
		return writeErr(cmd, err)
	}
	logger.Info("board opened", "vault", r.cfg.Vault.Path, "read_only", svc.State.ReadOnly())

	_, runErr := tea.NewProgram(app.New(svc), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	if err := errors.Join(runErr, svc.Close(context.WithoutCancel(ctx))); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
