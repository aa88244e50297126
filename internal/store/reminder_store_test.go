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

func TestCreateReminderValidation(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.CreateReminder(ctx, model.NewReminder{RemindAt: time.Now()})
	assert.True(t, store.IsValidation(err))

	_, err = s.CreateReminder(ctx, model.NewReminder{TaskID: "x"})
	assert.True(t, store.IsValidation(err))

	_, err = s.CreateReminder(ctx, model.NewReminder{TaskID: "no-such-task", RemindAt: time.Now()})
	assert.True(t, store.IsDataIntegrity(err), "got %v", err)
}

func TestPendingRemindersJoinsTask(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := testutil.NewTestStore(t)

	task, err := s.CreateTask(ctx, model.NewTask{Title: "Pay rent", Status: model.StatusNext})
	require.NoError(t, err)

	due, err := s.CreateReminder(ctx, model.NewReminder{TaskID: task.ID, RemindAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	onTheDot, err := s.CreateReminder(ctx, model.NewReminder{TaskID: task.ID, RemindAt: now})
	require.NoError(t, err)
	_, err = s.CreateReminder(ctx, model.NewReminder{TaskID: task.ID, RemindAt: now.Add(time.Minute)})
	require.NoError(t, err)

	pending, err := s.PendingReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, due.ID, pending[0].ID)
	assert.Equal(t, onTheDot.ID, pending[1].ID)
	require.NotNil(t, pending[0].TaskTitle)
	assert.Equal(t, "Pay rent", *pending[0].TaskTitle)
	require.NotNil(t, pending[0].TaskStatus)
	assert.Equal(t, model.StatusNext, *pending[0].TaskStatus)
	assert.False(t, pending[0].TaskMissing())
}

func TestPendingReminderWithMissingTask(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	now := time.Now().UTC()

	// Simulate an orphan left behind with foreign keys disabled.
	_, err := s.DB().Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = s.DB().Exec(
		"INSERT INTO reminders (id, task_id, remind_at, is_sent, created_at) VALUES ('r1', 'gone', ?, 0, ?)",
		now.Add(-time.Hour), now)
	require.NoError(t, err)

	pending, err := s.PendingReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].TaskMissing())
	assert.Nil(t, pending[0].TaskStatus)
}

func TestClaimReminderOnce(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	now := time.Now().UTC()

	task, err := s.CreateTask(ctx, model.NewTask{Title: "t"})
	require.NoError(t, err)
	r, err := s.CreateReminder(ctx, model.NewReminder{TaskID: task.ID, RemindAt: now.Add(-time.Second)})
	require.NoError(t, err)

	claimed, err := s.ClaimReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = s.ClaimReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	pending, err := s.PendingReminders(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Rescheduling never resets the sent flag.
	later := now.Add(time.Hour)
	updated, err := s.UpdateReminder(ctx, r.ID, model.ReminderChanges{RemindAt: &later})
	require.NoError(t, err)
	assert.True(t, updated.IsSent)
}

func TestReminderCrud(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	task, err := s.CreateTask(ctx, model.NewTask{Title: "t"})
	require.NoError(t, err)
	late, err := s.CreateReminder(ctx, model.NewReminder{TaskID: task.ID, RemindAt: base.Add(time.Hour)})
	require.NoError(t, err)
	early, err := s.CreateReminder(ctx, model.NewReminder{TaskID: task.ID, RemindAt: base})
	require.NoError(t, err)
	assert.False(t, early.IsSent)

	list, err := s.ListReminders(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)

	deleted, err := s.DeleteReminder(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.TaskID)

	_, err = s.DeleteReminder(ctx, late.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = s.UpdateReminder(ctx, late.ID, model.ReminderChanges{RemindAt: &base})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	n, err := s.DeleteTaskReminders(ctx, task.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
