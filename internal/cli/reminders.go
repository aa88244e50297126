package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdown/internal/app"
	"github.com/nhle/taskdown/internal/model"
)

func newRemindersCmd(r *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Reminder commands",
	}
	cmd.AddCommand(newRemindersListCmd(r))
	cmd.AddCommand(newRemindersAddCmd(r))
	cmd.AddCommand(newRemindersRmCmd(r))
	cmd.AddCommand(newRemindersPendingCmd(r))
	return cmd
}

func newRemindersListCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				if _, err := mustGetTask(ctx, svc.Client, args[0]); err != nil {
					return err
				}
				reminders, err := svc.Client.ListReminders(ctx, args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, r, reminders)
			})
		},
	}
}

func newRemindersAddCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task-id> <when>",
		Short: "Schedule a reminder (YYYY-MM-DD [HH:MM], local time)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := model.ParseRemindAt(args[1], r.cfg.Reminders.DefaultTime, time.Local)
			if err != nil {
				return writeErr(cmd, err)
			}
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				rem, err := svc.Client.CreateReminder(ctx, model.NewReminder{TaskID: args[0], RemindAt: at})
				if err != nil {
					return err
				}
				return writeOut(cmd, r, rem)
			})
		},
	}
}

func newRemindersRmCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <reminder-id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				if err := svc.Client.DeleteReminder(ctx, args[0]); err != nil {
					return err
				}
				return writeOut(cmd, r, map[string]string{"deleted": args[0]})
			})
		},
	}
}

func newRemindersPendingCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List due reminders that have not been sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				pending, err := svc.Client.PendingReminders(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, r, pending)
			})
		},
	}
}
