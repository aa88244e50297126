package query

import (
	"context"

	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/store"
)

// ListTasks returns the tasks of a container ordered by sort order. A nil
// projectID lists the Inbox. The returned slice is shared with the cache and
// must not be modified.
func (c *Client) ListTasks(ctx context.Context, projectID *string) ([]model.Task, error) {
	return cache.Load(ctx, c.cache, cache.TasksKey(projectID), func(ctx context.Context) ([]model.Task, error) {
		return read(ctx, c, "listing tasks", func(ctx context.Context) ([]model.Task, error) {
			return c.store.ListTasks(ctx, store.TaskFilter{ProjectID: projectID})
		})
	})
}

// SearchTasks bypasses the cache for ad-hoc filters.
func (c *Client) SearchTasks(ctx context.Context, filter store.TaskFilter) ([]model.Task, error) {
	return read(ctx, c, "searching tasks", func(ctx context.Context) ([]model.Task, error) {
		return c.store.ListTasks(ctx, filter)
	})
}

// GetTask returns the task or nil when it does not exist.
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return cache.Load(ctx, c.cache, cache.TaskKey(id), func(ctx context.Context) (*model.Task, error) {
		return read(ctx, c, "getting task", func(ctx context.Context) (*model.Task, error) {
			return c.store.GetTask(ctx, id)
		})
	})
}

// CreateTask inserts a task and invalidates its container's list.
func (c *Client) CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error) {
	return mutate(ctx, c, "creating task", func(ctx context.Context) (*model.Task, error) {
		t, err := c.store.CreateTask(ctx, in)
		if err != nil {
			return nil, err
		}
		c.cache.Invalidate(cache.TasksKey(t.ProjectID))
		return t, nil
	})
}

// UpdateTask applies a partial update. Moving a task to another project
// invalidates both the old and the new container.
func (c *Client) UpdateTask(ctx context.Context, id string, changes model.TaskChanges) (*model.Task, error) {
	return mutate(ctx, c, "updating task", func(ctx context.Context) (*model.Task, error) {
		u, err := c.store.UpdateTask(ctx, id, changes)
		if err != nil {
			return nil, err
		}
		c.invalidateTask(u)
		return &u.After, nil
	})
}

// MoveTask writes status and sort order together.
func (c *Client) MoveTask(ctx context.Context, id string, status model.TaskStatus, sortOrder int) (*model.Task, error) {
	return mutate(ctx, c, "moving task", func(ctx context.Context) (*model.Task, error) {
		u, err := c.store.MoveTask(ctx, id, status, sortOrder)
		if err != nil {
			return nil, err
		}
		c.invalidateTask(u)
		return &u.After, nil
	})
}

// PlaceTask moves a task into a column and renumbers that column.
func (c *Client) PlaceTask(
	ctx context.Context,
	id string,
	status model.TaskStatus,
	placements []store.ColumnPlacement,
) (*model.Task, error) {
	return mutate(ctx, c, "placing task", func(ctx context.Context) (*model.Task, error) {
		u, err := c.store.PlaceInColumn(ctx, id, status, placements)
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(placements))
		for _, p := range placements {
			keys = append(keys, cache.TaskKey(p.TaskID))
		}
		c.cache.Invalidate(keys...)
		c.invalidateTask(u)
		return &u.After, nil
	})
}

func (c *Client) invalidateTask(u *store.TaskUpdate) {
	keys := []string{cache.TasksKey(u.After.ProjectID), cache.TaskKey(u.After.ID)}
	if u.ProjectChanged() {
		keys = append(keys, cache.TasksKey(u.Before.ProjectID))
	}
	// Pending reminders carry the task's title and status.
	if u.Before.Status != u.After.Status || u.Before.Title != u.After.Title {
		keys = append(keys, cache.KeyPendingReminders)
	}
	c.cache.Invalidate(keys...)
}

// DeleteTask removes a task and its reminders.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := mutate(ctx, c, "deleting task", func(ctx context.Context) (*model.Task, error) {
		t, err := c.store.DeleteTask(ctx, id)
		if err != nil {
			return nil, err
		}
		c.cache.Invalidate(
			cache.TasksKey(t.ProjectID),
			cache.TaskKey(id),
			cache.TaskRemindersKey(id),
			cache.KeyPendingReminders,
		)
		return t, nil
	})
	return err
}
