package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdown/internal/app"
	"github.com/nhle/taskdown/internal/permission"
	"github.com/nhle/taskdown/internal/reminder"
)

// pollView is a poll cycle as printed by the scheduler commands.
type pollView struct {
	At         time.Time `json:"at" yaml:"at"`
	Due        int       `json:"due" yaml:"due"`
	Processed  int       `json:"processed" yaml:"processed"`
	Delivered  int       `json:"delivered" yaml:"delivered"`
	Suppressed int       `json:"suppressed" yaml:"suppressed"`
	Failed     int       `json:"failed" yaml:"failed"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

func newPollView(res reminder.Result) pollView {
	v := pollView{
		At:         res.At,
		Due:        res.Due,
		Processed:  res.Processed,
		Delivered:  res.Delivered,
		Suppressed: res.Suppressed,
		Failed:     res.Failed,
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

func newSchedulerCmd(r *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Reminder scheduler commands",
	}
	cmd.AddCommand(newSchedulerPollCmd(r))
	cmd.AddCommand(newSchedulerRunCmd(r))
	return cmd
}

func newSchedulerPollCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Deliver due reminders once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				if err := requireGranted(ctx, svc); err != nil {
					return err
				}
				res, ok := svc.Scheduler.PollNow(ctx)
				if !ok {
					return errors.New("a reminder poll is already running")
				}
				if res.Err != nil {
					return res.Err
				}
				return writeOut(cmd, r, newPollView(res))
			})
		},
	}
}

func newSchedulerRunCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reminder loop in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				if err := requireGranted(ctx, svc); err != nil {
					return err
				}
				if err := svc.StartReminders(ctx); err != nil {
					return err
				}
				r.logger.Info("reminder loop running", "interval", r.cfg.Reminders.Interval)

				results := svc.Scheduler.Results()
				for {
					select {
					case <-ctx.Done():
						return nil
					case res := <-results:
						if err := writeOut(cmd, r, newPollView(res)); err != nil {
							return err
						}
					}
				}
			})
		},
	}
}

func requireGranted(ctx context.Context, svc *app.Services) error {
	p, err := svc.Permission.Permission(ctx)
	if err != nil {
		return fmt.Errorf("reading notification permission: %w", err)
	}
	if p != permission.Granted {
		return fmt.Errorf("notifications are %s: grant them with --notify granted or :notify granted in the board", p)
	}
	return nil
}
