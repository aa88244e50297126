package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/store"
	"github.com/nhle/taskdown/tests/testutil"
)

func TestCreateTaskDefaults(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	task, err := s.CreateTask(ctx, model.NewTask{})
	require.NoError(t, err)
	assert.Equal(t, "", task.Title)
	assert.Equal(t, model.EmptyContent, task.Content)
	assert.Equal(t, model.StatusBacklog, task.Status)
	assert.Nil(t, task.ProjectID)
	assert.Nil(t, task.DueDate)
	assert.Zero(t, task.SortOrder)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusBacklog, got.Status)
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.CreateTask(ctx, model.NewTask{Title: "x", Status: "archived"})
	assert.True(t, store.IsValidation(err))

	_, err = s.CreateTask(ctx, model.NewTask{Title: "x", ProjectID: ptr("no-such-project")})
	require.Error(t, err)
	assert.True(t, store.IsDataIntegrity(err), "got %v", err)
}

func TestStatusCheckConstraint(t *testing.T) {
	s := testutil.NewTestStore(t)
	now := time.Now().UTC()

	_, err := s.DB().Exec(
		"INSERT INTO tasks (id, status, created_at, updated_at) VALUES ('x', 'archived', ?, ?)", now, now)
	assert.Error(t, err)
}

func TestListTasksByContainer(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	p, err := s.CreateProject(ctx, model.NewProject{Name: "Work"})
	require.NoError(t, err)

	_, err = s.CreateTask(ctx, model.NewTask{Title: "inbox b", SortOrder: 2000})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, model.NewTask{Title: "inbox a", SortOrder: 1000})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, model.NewTask{Title: "work", ProjectID: &p.ID, Status: model.StatusNext})
	require.NoError(t, err)

	inbox, err := s.ListTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "inbox a", inbox[0].Title)
	assert.Equal(t, "inbox b", inbox[1].Title)

	work, err := s.ListTasks(ctx, store.TaskFilter{ProjectID: &p.ID})
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "work", work[0].Title)

	next := model.StatusNext
	all, err := s.ListTasks(ctx, store.TaskFilter{AllProjects: true, Status: &next})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	found, err := s.ListTasks(ctx, store.TaskFilter{AllProjects: true, Query: "INBOX"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestUpdateTaskReportsBeforeAndAfter(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	s := testutil.NewTestStoreWith(t, store.Options{Now: clock.Now})

	p, err := s.CreateProject(ctx, model.NewProject{Name: "P"})
	require.NoError(t, err)
	due := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	task, err := s.CreateTask(ctx, model.NewTask{Title: "t", DueDate: &due})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	update, err := s.UpdateTask(ctx, task.ID, model.TaskChanges{ProjectID: &p.ID, ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, update.Before.ProjectID)
	require.NotNil(t, update.After.ProjectID)
	assert.Equal(t, p.ID, *update.After.ProjectID)
	assert.True(t, update.ProjectChanged())
	assert.Nil(t, update.After.DueDate)
	assert.Equal(t, "t", update.After.Title)
	assert.True(t, update.After.CreatedAt.Equal(task.CreatedAt))
	assert.True(t, update.After.UpdatedAt.Equal(clock.Now()))

	update, err = s.UpdateTask(ctx, task.ID, model.TaskChanges{Title: ptr("renamed")})
	require.NoError(t, err)
	assert.False(t, update.ProjectChanged())

	_, err = s.UpdateTask(ctx, "missing", model.TaskChanges{Title: ptr("x")})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	bad := model.TaskStatus("later")
	_, err = s.UpdateTask(ctx, task.ID, model.TaskChanges{Status: &bad})
	assert.True(t, store.IsValidation(err))
}

func TestPlaceInColumnRenumbers(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	a, err := s.CreateTask(ctx, model.NewTask{Title: "a", Status: model.StatusNext, SortOrder: 1000})
	require.NoError(t, err)
	b, err := s.CreateTask(ctx, model.NewTask{Title: "b", Status: model.StatusNext, SortOrder: 1000})
	require.NoError(t, err)
	moved, err := s.CreateTask(ctx, model.NewTask{Title: "m"})
	require.NoError(t, err)

	update, err := s.PlaceInColumn(ctx, moved.ID, model.StatusNext, []store.ColumnPlacement{
		{TaskID: a.ID, SortOrder: 1000},
		{TaskID: moved.ID, SortOrder: 2000},
		{TaskID: b.ID, SortOrder: 3000},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusBacklog, update.Before.Status)
	assert.Equal(t, model.StatusNext, update.After.Status)
	assert.Equal(t, 2000, update.After.SortOrder)

	next := model.StatusNext
	column, err := s.ListTasks(ctx, store.TaskFilter{Status: &next})
	require.NoError(t, err)
	require.Len(t, column, 3)
	assert.Equal(t, []string{"a", "m", "b"}, []string{column[0].Title, column[1].Title, column[2].Title})
}

func TestDeleteTaskCascadesReminders(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	task, err := s.CreateTask(ctx, model.NewTask{Title: "t"})
	require.NoError(t, err)
	r, err := s.CreateReminder(ctx, model.NewReminder{TaskID: task.ID, RemindAt: time.Now()})
	require.NoError(t, err)

	deleted, err := s.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)

	got, err := s.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.DeleteTask(ctx, task.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := testutil.NewTestStore(t)
	require.NoError(t, s.DB().Close())

	_, err := s.ListTasks(context.Background(), store.TaskFilter{})
	require.Error(t, err)
	assert.True(t, store.IsStoreUnavailable(err))
}
