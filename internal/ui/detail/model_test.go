package detail

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/autosave"
	"github.com/nhle/taskdown/internal/keys"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/richtext"
)

type fakeSaver struct {
	changes  []string
	closed   bool
	closeErr error
}

func (f *fakeSaver) Change(content string) { f.changes = append(f.changes, content) }

func (f *fakeSaver) Status() autosave.Status { return autosave.StatusSaved }

func (f *fakeSaver) Close(context.Context) error {
	f.closed = true
	return f.closeErr
}

func opened(t *testing.T, s *fakeSaver) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.Open(LoadedMsg{
		Task: &model.Task{
			ID:      "t1",
			Title:   "Write report",
			Status:  model.StatusNext,
			Content: richtext.FromPlainText("hello"),
		},
		Reminders: []model.Reminder{{ID: "r1", TaskID: "t1"}},
	}, s)
	return m
}

func TestEditsFeedTheSaver(t *testing.T) {
	s := &fakeSaver{}
	m := opened(t, s)
	assert.Equal(t, "t1", m.TaskID())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("!")})
	require.Len(t, s.changes, 1)
	assert.Equal(t, richtext.FromPlainText("hello!"), s.changes[0])

	view := m.View()
	assert.Contains(t, view, "Write report")
	assert.Contains(t, view, "saved")
}

func TestNonEditingMessagesDoNotSave(t *testing.T) {
	s := &fakeSaver{}
	m := opened(t, s)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Empty(t, s.changes)
}

func TestBackClosesSaver(t *testing.T) {
	s := &fakeSaver{closeErr: errors.New("disk full")}
	m := opened(t, s)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, BackMsg{}, msg)
	assert.EqualError(t, msg.(BackMsg).Err, "disk full")
	assert.True(t, s.closed)
}

func TestBackWithoutTask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.Open(LoadedMsg{Err: errors.New("gone")}, nil)
	assert.Contains(t, m.View(), "gone")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}
