package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdown/internal/app"
	"github.com/nhle/taskdown/internal/kanban"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/query"
	"github.com/nhle/taskdown/internal/richtext"
	"github.com/nhle/taskdown/internal/store"
)

// taskView is the shape printed by tasks show.
type taskView struct {
	Task      *model.Task      `json:"task" yaml:"task"`
	Note      string           `json:"note" yaml:"note"`
	Reminders []model.Reminder `json:"reminders" yaml:"reminders"`
}

func newTasksCmd(r *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(r))
	cmd.AddCommand(newTasksAddCmd(r))
	cmd.AddCommand(newTasksShowCmd(r))
	cmd.AddCommand(newTasksEditCmd(r))
	cmd.AddCommand(newTasksMoveCmd(r))
	cmd.AddCommand(newTasksRmCmd(r))
	return cmd
}

func newTasksListCmd(r *Root) *cobra.Command {
	var project, status, search string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of a container (Inbox by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				scope, err := projectScope(ctx, svc.Client, project)
				if err != nil {
					return err
				}
				filter := store.TaskFilter{ProjectID: scope, AllProjects: all, Query: search}
				if status != "" {
					st, err := model.ParseStatus(status)
					if err != nil {
						return err
					}
					filter.Status = &st
				}

				var tasks []model.Task
				if all || filter.Status != nil || search != "" {
					tasks, err = svc.Client.SearchTasks(ctx, filter)
				} else {
					tasks, err = svc.Client.ListTasks(ctx, scope)
				}
				if err != nil {
					return err
				}
				return writeOut(cmd, r, tasks)
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project id or name (default Inbox)")
	cmd.Flags().BoolVar(&all, "all", false, "List tasks of every container")
	cmd.Flags().StringVar(&status, "status", "", "Only one column (backlog|next|waiting|done)")
	cmd.Flags().StringVar(&search, "query", "", "Case-insensitive title search")
	return cmd
}

func newTasksAddCmd(r *Root) *cobra.Command {
	var project, status, due, note, remind string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task at the head of its column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				in := model.NewTask{Title: args[0], Status: model.StatusBacklog}
				var err error
				if in.ProjectID, err = projectScope(ctx, svc.Client, project); err != nil {
					return err
				}
				if status != "" {
					if in.Status, err = model.ParseStatus(status); err != nil {
						return err
					}
				}
				if due != "" {
					d, err := model.ParseDate(due, time.Local)
					if err != nil {
						return err
					}
					in.DueDate = &d
				}
				if note != "" {
					in.Content = richtext.FromPlainText(note)
				}
				var remindAt *time.Time
				if remind != "" {
					at, err := model.ParseRemindAt(remind, r.cfg.Reminders.DefaultTime, time.Local)
					if err != nil {
						return err
					}
					remindAt = &at
				}

				t, err := svc.Board.Create(ctx, in)
				if err != nil {
					return err
				}
				if remindAt != nil {
					if _, err := svc.Client.CreateReminder(ctx, model.NewReminder{TaskID: t.ID, RemindAt: *remindAt}); err != nil {
						return fmt.Errorf("task %s created, adding reminder: %w", t.ID, err)
					}
				}
				return writeOut(cmd, r, t)
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project id or name (default Inbox)")
	cmd.Flags().StringVar(&status, "status", "", "Column (default backlog)")
	cmd.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD")
	cmd.Flags().StringVar(&note, "note", "", "Plain-text note")
	cmd.Flags().StringVar(&remind, "remind", "", "Reminder time, YYYY-MM-DD [HH:MM]")
	return cmd
}

func newTasksShowCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its note and reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				t, err := mustGetTask(ctx, svc.Client, args[0])
				if err != nil {
					return err
				}
				reminders, err := svc.Client.ListReminders(ctx, t.ID)
				if err != nil {
					return err
				}
				return writeOut(cmd, r, taskView{Task: t, Note: richtext.PlainText(t.Content), Reminders: reminders})
			})
		},
	}
}

func newTasksEditCmd(r *Root) *cobra.Command {
	var title, note, due, project string
	var clearDue, inbox bool

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change a task's title, note, due date or project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				var changes model.TaskChanges
				if flags.Changed("title") {
					changes.Title = &title
				}
				if flags.Changed("note") {
					content := richtext.FromPlainText(note)
					changes.Content = &content
				}
				switch {
				case clearDue:
					changes.ClearDueDate = true
				case flags.Changed("due"):
					d, err := model.ParseDate(due, time.Local)
					if err != nil {
						return err
					}
					changes.DueDate = &d
				}
				switch {
				case inbox:
					changes.ClearProject = true
				case project != "":
					scope, err := projectScope(ctx, svc.Client, project)
					if err != nil {
						return err
					}
					changes.ProjectID = scope
				}
				if changes.Empty() {
					return fmt.Errorf("nothing to change")
				}

				t, err := svc.Client.UpdateTask(ctx, args[0], changes)
				if err != nil {
					return err
				}
				return writeOut(cmd, r, t)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&note, "note", "", "Replace the note with plain text")
	cmd.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().StringVar(&project, "project", "", "Move to a project (id or name)")
	cmd.Flags().BoolVar(&inbox, "inbox", false, "Move to the Inbox")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	cmd.MarkFlagsMutuallyExclusive("project", "inbox")
	return cmd
}

func newTasksMoveCmd(r *Root) *cobra.Command {
	var status string
	var index int

	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Place a task in a column at a position",
		Long: "Place a task in a column. --index counts from the top of the destination " +
			"column without the task itself; a negative index appends to the end.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				t, err := mustGetTask(ctx, svc.Client, args[0])
				if err != nil {
					return err
				}
				st := t.Status
				if status != "" {
					if st, err = model.ParseStatus(status); err != nil {
						return err
					}
				}

				req := kanban.MoveRequest{TaskID: t.ID, ProjectID: t.ProjectID, Status: st, Index: index}
				if index < 0 {
					tasks, err := svc.Client.ListTasks(ctx, t.ProjectID)
					if err != nil {
						return err
					}
					req.Index = len(kanban.Column(tasks, st, t.ID))
				}
				moved, err := svc.Board.Move(ctx, req)
				if err != nil {
					return err
				}
				return writeOut(cmd, r, moved)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Destination column (default: current)")
	cmd.Flags().IntVar(&index, "index", -1, "Position in the destination column")
	return cmd
}

func newTasksRmCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task and its reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				if err := svc.Client.DeleteTask(ctx, args[0]); err != nil {
					return err
				}
				return writeOut(cmd, r, map[string]string{"deleted": args[0]})
			})
		},
	}
}

func mustGetTask(ctx context.Context, c *query.Client, id string) (*model.Task, error) {
	t, err := c.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %q: %w", id, store.ErrNotFound)
	}
	return t, nil
}
