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

const taskColumns = "id, title, content, project_id, status, due_date, sort_order, created_at, updated_at"

func validateStatus(status model.TaskStatus) error {
	if !status.Valid() {
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("%q is not one of backlog, next, waiting, done", status),
		}
	}
	return nil
}

// buildTaskQuery constructs the WHERE clause for a task filter.
func buildTaskQuery(filter TaskFilter) (string, []any) {
	var conditions []string
	var args []any

	if !filter.AllProjects {
		if filter.ProjectID == nil {
			conditions = append(conditions, "project_id IS NULL")
		} else {
			conditions = append(conditions, "project_id = ?")
			args = append(args, *filter.ProjectID)
		}
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, "title LIKE ?")
		args = append(args, "%"+q+"%")
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY sort_order, created_at, id"
	return query, args
}

// ListTasks returns the tasks of one container ordered by sort order.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	if filter.Status != nil {
		if err := validateStatus(*filter.Status); err != nil {
			return nil, err
		}
	}
	query, args := buildTaskQuery(filter)

	tasks := []model.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, classify("listing tasks", err)
	}
	return tasks, nil
}

// GetTask returns the task with id, or nil when there is none.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Task, error) {
	var t model.Task
	err := sqlx.GetContext(ctx, q, &t, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("getting task %s", id), err)
	}
	return &t, nil
}

// CreateTask inserts a new task. Status defaults to backlog and content to
// the empty document.
func (s *SQLiteStore) CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error) {
	status := in.Status
	if status == "" {
		status = model.StatusBacklog
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	content := in.Content
	if content == "" {
		content = model.EmptyContent
	}

	now := s.timestamp()
	t := model.Task{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Content:   content,
		ProjectID: in.ProjectID,
		Status:    status,
		DueDate:   utcPtr(in.DueDate),
		SortOrder: in.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO tasks (
			id, title, content, project_id, status,
			due_date, sort_order, created_at, updated_at
		) VALUES (
			:id, :title, :content, :project_id, :status,
			:due_date, :sort_order, :created_at, :updated_at
		)`, t)
	if err != nil {
		return nil, classify("creating task", err)
	}
	return &t, nil
}

// UpdateTask writes the supplied fields and refreshes updated_at. The row is
// read before and after in the same transaction.
func (s *SQLiteStore) UpdateTask(
	ctx context.Context,
	id string,
	changes model.TaskChanges,
) (*TaskUpdate, error) {
	var sets []string
	var args []any

	if changes.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *changes.Title)
	}
	if changes.Content != nil {
		content := *changes.Content
		if content == "" {
			content = model.EmptyContent
		}
		sets = append(sets, "content = ?")
		args = append(args, content)
	}
	switch {
	case changes.ClearProject:
		sets = append(sets, "project_id = NULL")
	case changes.ProjectID != nil:
		sets = append(sets, "project_id = ?")
		args = append(args, *changes.ProjectID)
	}
	if changes.Status != nil {
		if err := validateStatus(*changes.Status); err != nil {
			return nil, err
		}
		sets = append(sets, "status = ?")
		args = append(args, string(*changes.Status))
	}
	switch {
	case changes.ClearDueDate:
		sets = append(sets, "due_date = NULL")
	case changes.DueDate != nil:
		sets = append(sets, "due_date = ?")
		args = append(args, changes.DueDate.UTC())
	}
	if changes.SortOrder != nil {
		sets = append(sets, "sort_order = ?")
		args = append(args, *changes.SortOrder)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	var update *TaskUpdate
	err := s.inTx(ctx, fmt.Sprintf("updating task %s", id), func(tx *sqlx.Tx) error {
		before, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if before == nil {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return err
		}
		after, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		update = &TaskUpdate{Before: *before, After: *after}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

// MoveTask sets status and sort order in one statement.
func (s *SQLiteStore) MoveTask(
	ctx context.Context,
	id string,
	status model.TaskStatus,
	sortOrder int,
) (*TaskUpdate, error) {
	return s.UpdateTask(ctx, id, model.TaskChanges{Status: &status, SortOrder: &sortOrder})
}

// PlaceInColumn moves id into status and rewrites the sort order of every
// placement. Placements for tasks deleted in the meantime are skipped.
func (s *SQLiteStore) PlaceInColumn(
	ctx context.Context,
	id string,
	status model.TaskStatus,
	placements []ColumnPlacement,
) (*TaskUpdate, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	var update *TaskUpdate
	err := s.inTx(ctx, fmt.Sprintf("placing task %s", id), func(tx *sqlx.Tx) error {
		before, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if before == nil {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}

		now := s.timestamp()
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
			string(status), now, id); err != nil {
			return err
		}
		for _, p := range placements {
			if _, err := tx.ExecContext(ctx,
				"UPDATE tasks SET sort_order = ?, updated_at = ? WHERE id = ?",
				p.SortOrder, now, p.TaskID); err != nil {
				return err
			}
		}

		after, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		update = &TaskUpdate{Before: *before, After: *after}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

// DeleteTask removes a task and its reminders in one transaction.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) (*model.Task, error) {
	var deleted *model.Task
	err := s.inTx(ctx, fmt.Sprintf("deleting task %s", id), func(tx *sqlx.Tx) error {
		t, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM reminders WHERE task_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
			return err
		}
		deleted = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
