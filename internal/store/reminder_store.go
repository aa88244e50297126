package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskdown/internal/model"
)

const reminderColumns = "id, task_id, remind_at, is_sent, created_at"

// ListReminders returns the reminders of a task ordered by remind_at.
func (s *SQLiteStore) ListReminders(ctx context.Context, taskID string) ([]model.Reminder, error) {
	reminders := []model.Reminder{}
	err := s.db.SelectContext(ctx, &reminders,
		"SELECT "+reminderColumns+" FROM reminders WHERE task_id = ? ORDER BY remind_at, id", taskID)
	if err != nil {
		return nil, classify(fmt.Sprintf("listing reminders for task %s", taskID), err)
	}
	return reminders, nil
}

// GetReminder returns the reminder with id, or nil when there is none.
func (s *SQLiteStore) GetReminder(ctx context.Context, id string) (*model.Reminder, error) {
	return getReminder(ctx, s.db, id)
}

func getReminder(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Reminder, error) {
	var r model.Reminder
	err := sqlx.GetContext(ctx, q, &r, "SELECT "+reminderColumns+" FROM reminders WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("getting reminder %s", id), err)
	}
	return &r, nil
}

// CreateReminder inserts an unsent reminder for an existing task.
func (s *SQLiteStore) CreateReminder(ctx context.Context, in model.NewReminder) (*model.Reminder, error) {
	if strings.TrimSpace(in.TaskID) == "" {
		return nil, &ValidationError{Field: "task_id", Message: "reminder needs a task"}
	}
	if in.RemindAt.IsZero() {
		return nil, &ValidationError{Field: "remind_at", Message: "reminder needs a time"}
	}

	r := model.Reminder{
		ID:        uuid.New().String(),
		TaskID:    in.TaskID,
		RemindAt:  in.RemindAt.UTC(),
		CreatedAt: s.timestamp(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO reminders (id, task_id, remind_at, is_sent, created_at) VALUES (?, ?, ?, ?, ?)",
		r.ID, r.TaskID, r.RemindAt, boolToInt(r.IsSent), r.CreatedAt,
	)
	if err != nil {
		return nil, classify("creating reminder", err)
	}
	return &r, nil
}

// UpdateReminder reschedules a reminder. The sent flag is left as is.
func (s *SQLiteStore) UpdateReminder(
	ctx context.Context,
	id string,
	changes model.ReminderChanges,
) (*model.Reminder, error) {
	if changes.RemindAt != nil && changes.RemindAt.IsZero() {
		return nil, &ValidationError{Field: "remind_at", Message: "reminder needs a time"}
	}

	var updated *model.Reminder
	err := s.inTx(ctx, fmt.Sprintf("updating reminder %s", id), func(tx *sqlx.Tx) error {
		if changes.RemindAt != nil {
			result, err := tx.ExecContext(ctx,
				"UPDATE reminders SET remind_at = ? WHERE id = ?", changes.RemindAt.UTC(), id)
			if err != nil {
				return err
			}
			if rows, _ := result.RowsAffected(); rows == 0 {
				return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
			}
		}
		r, err := getReminder(ctx, tx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteReminder removes a reminder and returns the deleted row.
func (s *SQLiteStore) DeleteReminder(ctx context.Context, id string) (*model.Reminder, error) {
	var deleted *model.Reminder
	err := s.inTx(ctx, fmt.Sprintf("deleting reminder %s", id), func(tx *sqlx.Tx) error {
		r, err := getReminder(ctx, tx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", id); err != nil {
			return err
		}
		deleted = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// DeleteTaskReminders removes every reminder of a task.
func (s *SQLiteStore) DeleteTaskReminders(ctx context.Context, taskID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reminders WHERE task_id = ?", taskID)
	if err != nil {
		return 0, classify(fmt.Sprintf("deleting reminders of task %s", taskID), err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// PendingReminders returns the due, unsent reminders with their task's title
// and status in a single query.
func (s *SQLiteStore) PendingReminders(ctx context.Context, now time.Time) ([]model.PendingReminder, error) {
	pending := []model.PendingReminder{}
	err := s.db.SelectContext(ctx, &pending, `
		SELECT r.id, r.task_id, r.remind_at, r.is_sent, r.created_at,
			t.title AS task_title, t.status AS task_status
		FROM reminders r
		LEFT JOIN tasks t ON t.id = r.task_id
		WHERE r.is_sent = 0 AND r.remind_at <= ?
		ORDER BY r.remind_at, r.id`, now.UTC())
	if err != nil {
		return nil, classify("querying pending reminders", err)
	}
	return pending, nil
}

// ClaimReminder flips is_sent from 0 to 1. Only the caller that performs the
// flip gets true.
func (s *SQLiteStore) ClaimReminder(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE reminders SET is_sent = 1 WHERE id = ? AND is_sent = 0", id)
	if err != nil {
		return false, classify(fmt.Sprintf("marking reminder %s sent", id), err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}
