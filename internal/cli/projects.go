package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdown/internal/app"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/query"
	"github.com/nhle/taskdown/internal/store"
)

func newProjectsCmd(r *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(newProjectsListCmd(r))
	cmd.AddCommand(newProjectsAddCmd(r))
	cmd.AddCommand(newProjectsRenameCmd(r))
	cmd.AddCommand(newProjectsRmCmd(r))
	return cmd
}

func newProjectsListCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				projects, err := svc.Client.ListProjects(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, r, projects)
			})
		},
	}
}

func newProjectsAddCmd(r *Root) *cobra.Command {
	var color, icon string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				in := model.NewProject{Name: strings.TrimSpace(args[0]), Color: color}
				if icon != "" {
					in.Icon = &icon
				}
				p, err := svc.Client.CreateProject(ctx, in)
				if err != nil {
					return err
				}
				return writeOut(cmd, r, p)
			})
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Hex color (default "+model.DefaultProjectColor+")")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon shown next to the name")
	return cmd
}

func newProjectsRenameCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project> <name>",
		Short: "Rename a project (by id or name)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				p, err := resolveProject(ctx, svc.Client, args[0])
				if err != nil {
					return err
				}
				name := strings.TrimSpace(args[1])
				updated, err := svc.Client.UpdateProject(ctx, p.ID, model.ProjectChanges{Name: &name})
				if err != nil {
					return err
				}
				return writeOut(cmd, r, updated)
			})
		},
	}
}

func newProjectsRmCmd(r *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <project>",
		Short: "Delete a project; its tasks move to the Inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withServices(cmd, func(ctx context.Context, svc *app.Services) error {
				p, err := resolveProject(ctx, svc.Client, args[0])
				if err != nil {
					return err
				}
				if err := svc.Client.DeleteProject(ctx, p.ID); err != nil {
					return err
				}
				return writeOut(cmd, r, map[string]string{"deleted": p.ID})
			})
		},
	}
}

// resolveProject finds a project by exact id, then by case-insensitive name.
func resolveProject(ctx context.Context, c *query.Client, ref string) (*model.Project, error) {
	ref = strings.TrimSpace(ref)
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == ref {
			return &projects[i], nil
		}
	}
	var match *model.Project
	for i := range projects {
		if strings.EqualFold(projects[i].Name, ref) {
			if match != nil {
				return nil, fmt.Errorf("project name %q is ambiguous, use the id", ref)
			}
			match = &projects[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("project %q: %w", ref, store.ErrNotFound)
	}
	return match, nil
}

// projectScope turns a --project flag into a container; "" is the Inbox.
func projectScope(ctx context.Context, c *query.Client, ref string) (*string, error) {
	if ref == "" {
		return nil, nil
	}
	p, err := resolveProject(ctx, c, ref)
	if err != nil {
		return nil, err
	}
	return &p.ID, nil
}
