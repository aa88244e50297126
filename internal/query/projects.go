package query

import (
	"context"

	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/model"
)

// ListProjects returns every project ordered by sort order. The returned
// slice is shared with the cache and must not be modified.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	return cache.Load(ctx, c.cache, cache.KeyProjects, func(ctx context.Context) ([]model.Project, error) {
		return read(ctx, c, "listing projects", c.store.ListProjects)
	})
}

// GetProject returns the project or nil when it does not exist.
func (c *Client) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return cache.Load(ctx, c.cache, cache.ProjectKey(id), func(ctx context.Context) (*model.Project, error) {
		return read(ctx, c, "getting project", func(ctx context.Context) (*model.Project, error) {
			return c.store.GetProject(ctx, id)
		})
	})
}

// CreateProject inserts a project and invalidates the project list.
func (c *Client) CreateProject(ctx context.Context, in model.NewProject) (*model.Project, error) {
	return mutate(ctx, c, "creating project", func(ctx context.Context) (*model.Project, error) {
		p, err := c.store.CreateProject(ctx, in)
		if err != nil {
			return nil, err
		}
		c.cache.Invalidate(cache.KeyProjects)
		return p, nil
	})
}

// UpdateProject applies a partial update.
func (c *Client) UpdateProject(ctx context.Context, id string, changes model.ProjectChanges) (*model.Project, error) {
	return mutate(ctx, c, "updating project", func(ctx context.Context) (*model.Project, error) {
		p, err := c.store.UpdateProject(ctx, id, changes)
		if err != nil {
			return nil, err
		}
		c.cache.Invalidate(cache.KeyProjects, cache.ProjectKey(id))
		return p, nil
	})
}

// DeleteProject removes a project; its tasks move to the Inbox. Every
// single-task entry is dropped because the detached tasks changed container.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	_, err := mutate(ctx, c, "deleting project", func(ctx context.Context) (int64, error) {
		detached, err := c.store.DeleteProject(ctx, id)
		if err != nil {
			return 0, err
		}
		c.cache.Invalidate(cache.KeyProjects, cache.ProjectKey(id), cache.TasksKey(&id), cache.TasksKey(nil))
		c.cache.InvalidatePrefix(cache.PrefixTask)
		c.logger.Info("project deleted", "project_id", id, "detached_tasks", detached)
		return detached, nil
	})
	return err
}
