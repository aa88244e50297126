package query

import (
	"context"
	"time"

	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/model"
)

// ListReminders returns a task's reminders ordered by time.
func (c *Client) ListReminders(ctx context.Context, taskID string) ([]model.Reminder, error) {
	return cache.Load(ctx, c.cache, cache.TaskRemindersKey(taskID), func(ctx context.Context) ([]model.Reminder, error) {
		return read(ctx, c, "listing reminders", func(ctx context.Context) ([]model.Reminder, error) {
			return c.store.ListReminders(ctx, taskID)
		})
	})
}

// GetReminder returns the reminder or nil when it does not exist.
func (c *Client) GetReminder(ctx context.Context, id string) (*model.Reminder, error) {
	return read(ctx, c, "getting reminder", func(ctx context.Context) (*model.Reminder, error) {
		return c.store.GetReminder(ctx, id)
	})
}

// PendingReminders returns due, unsent reminders with their task. The result
// is cached under reminders:pending until a reminder mutation or a
// scheduler cycle invalidates it.
func (c *Client) PendingReminders(ctx context.Context) ([]model.PendingReminder, error) {
	return cache.Load(ctx, c.cache, cache.KeyPendingReminders, func(ctx context.Context) ([]model.PendingReminder, error) {
		return c.DueReminders(ctx, c.now())
	})
}

// DueReminders reads due, unsent reminders straight from the store.
func (c *Client) DueReminders(ctx context.Context, now time.Time) ([]model.PendingReminder, error) {
	return read(ctx, c, "querying pending reminders", func(ctx context.Context) ([]model.PendingReminder, error) {
		return c.store.PendingReminders(ctx, now)
	})
}

// CreateReminder schedules a reminder for a task.
func (c *Client) CreateReminder(ctx context.Context, in model.NewReminder) (*model.Reminder, error) {
	return mutate(ctx, c, "creating reminder", func(ctx context.Context) (*model.Reminder, error) {
		r, err := c.store.CreateReminder(ctx, in)
		if err != nil {
			return nil, err
		}
		c.invalidateReminders(r.TaskID)
		return r, nil
	})
}

// UpdateReminder reschedules a reminder.
func (c *Client) UpdateReminder(ctx context.Context, id string, changes model.ReminderChanges) (*model.Reminder, error) {
	return mutate(ctx, c, "updating reminder", func(ctx context.Context) (*model.Reminder, error) {
		r, err := c.store.UpdateReminder(ctx, id, changes)
		if err != nil {
			return nil, err
		}
		c.invalidateReminders(r.TaskID)
		return r, nil
	})
}

// DeleteReminder removes one reminder.
func (c *Client) DeleteReminder(ctx context.Context, id string) error {
	_, err := mutate(ctx, c, "deleting reminder", func(ctx context.Context) (*model.Reminder, error) {
		r, err := c.store.DeleteReminder(ctx, id)
		if err != nil {
			return nil, err
		}
		c.invalidateReminders(r.TaskID)
		return r, nil
	})
	return err
}

// DeleteTaskReminders removes every reminder of a task.
func (c *Client) DeleteTaskReminders(ctx context.Context, taskID string) (int64, error) {
	return mutate(ctx, c, "deleting task reminders", func(ctx context.Context) (int64, error) {
		n, err := c.store.DeleteTaskReminders(ctx, taskID)
		if err != nil {
			return 0, err
		}
		c.invalidateReminders(taskID)
		return n, nil
	})
}

// ClaimReminder marks a reminder sent and reports whether this call did so.
// It does not invalidate: the scheduler batches invalidation per cycle.
func (c *Client) ClaimReminder(ctx context.Context, id string) (bool, error) {
	return mutate(ctx, c, "marking reminder sent", func(ctx context.Context) (bool, error) {
		return c.store.ClaimReminder(ctx, id)
	})
}

// MarkReminderSent claims a reminder and invalidates the reminder keys.
func (c *Client) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	r, err := c.GetReminder(ctx, id)
	if err != nil {
		return false, err
	}
	claimed, err := c.ClaimReminder(ctx, id)
	if err != nil {
		return false, err
	}
	if r != nil {
		c.invalidateReminders(r.TaskID)
	} else {
		c.cache.Invalidate(cache.KeyPendingReminders)
	}
	return claimed, nil
}

func (c *Client) invalidateReminders(taskID string) {
	c.cache.Invalidate(cache.TaskRemindersKey(taskID), cache.KeyPendingReminders)
}
