package board

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/kanban"
	"github.com/nhle/taskdown/internal/keys"
	"github.com/nhle/taskdown/internal/model"
)

type fakeLister struct {
	tasks []model.Task
}

func (f fakeLister) ListTasks(context.Context, *string) ([]model.Task, error) {
	return f.tasks, nil
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends a key and runs the resulting command, if any.
func press(t *testing.T, m Model, k string) (Model, tea.Msg) {
	t.Helper()
	m, cmd := m.Update(keyMsg(k))
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

// typeKey sends a key without running the command, which for text input is
// a cursor blink timer.
func typeKey(m Model, k string) Model {
	m, _ = m.Update(keyMsg(k))
	return m
}

func seeded(t *testing.T) Model {
	t.Helper()
	l := fakeLister{tasks: []model.Task{
		{ID: "a", Title: "Alpha", Status: model.StatusBacklog, SortOrder: 1000},
		{ID: "b", Title: "Bravo", Status: model.StatusBacklog, SortOrder: 2000},
		{ID: "c", Title: "Charlie", Status: model.StatusBacklog, SortOrder: 3000},
		{ID: "d", Title: "Delta", Status: model.StatusNext, SortOrder: 1000},
	}}
	m := New(l, keys.DefaultKeyMap(), 120, 30)
	msg := m.Init()()
	m, _ = m.Update(msg)
	return m
}

func TestLoadGroupsIntoColumns(t *testing.T) {
	m := seeded(t)
	assert.Equal(t, 3, m.Count(model.StatusBacklog))
	assert.Equal(t, 1, m.Count(model.StatusNext))
	assert.Zero(t, m.Count(model.StatusDone))

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", sel.ID)
	assert.NotEmpty(t, m.View())
}

func TestCursorNavigation(t *testing.T) {
	m := seeded(t)
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	sel, _ := m.Selected()
	assert.Equal(t, "c", sel.ID, "cursor stops at the last card")

	m, _ = press(t, m, "l")
	assert.Equal(t, model.StatusNext, m.Status())
	sel, _ = m.Selected()
	assert.Equal(t, "d", sel.ID, "row is clamped to the shorter column")

	m, _ = press(t, m, "l")
	_, ok := m.Selected()
	assert.False(t, ok, "empty column has no selection")

	_, msg := press(t, seeded(t), "enter")
	assert.Equal(t, SelectedTaskMsg{TaskID: "a"}, msg)
}

func TestMoveAcrossColumnsRequestsMove(t *testing.T) {
	m := seeded(t)
	m, _ = press(t, m, "j")

	m, msg := press(t, m, "L")
	require.IsType(t, MoveRequestMsg{}, msg)
	assert.Equal(t, kanban.MoveRequest{TaskID: "b", Status: model.StatusNext, Index: 1}, msg.(MoveRequestMsg).Request)
	assert.Equal(t, model.StatusNext, m.Status(), "cursor follows the card")

	_, msg = press(t, seeded(t), "H")
	assert.Nil(t, msg, "no column left of backlog")
}

func TestMoveWithinColumn(t *testing.T) {
	m := seeded(t)

	_, msg := press(t, m, "K")
	assert.Nil(t, msg, "top card cannot move up")

	m, msg = press(t, m, "J")
	require.IsType(t, MoveRequestMsg{}, msg)
	assert.Equal(t, kanban.MoveRequest{TaskID: "a", Status: model.StatusBacklog, Index: 1}, msg.(MoveRequestMsg).Request)

	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	_, msg = press(t, m, "J")
	assert.Nil(t, msg, "bottom card cannot move down")
}

func TestReloadKeepsCursorOnMovedCard(t *testing.T) {
	m := seeded(t)
	m, _ = press(t, m, "L")

	m.SetTasks([]model.Task{
		{ID: "b", Status: model.StatusBacklog, SortOrder: 2000},
		{ID: "c", Status: model.StatusBacklog, SortOrder: 3000},
		{ID: "a", Status: model.StatusNext, SortOrder: 0},
		{ID: "d", Status: model.StatusNext, SortOrder: 1000},
	})
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", sel.ID)
}

func TestFilterNarrowsAndBlocksMoves(t *testing.T) {
	m := seeded(t)
	m = typeKey(m, "/")
	require.True(t, m.Searching())
	for _, r := range "char" {
		m = typeKey(m, string(r))
	}
	m = typeKey(m, "enter")

	assert.Equal(t, "char", m.Filter())
	assert.Equal(t, 1, m.Count(model.StatusBacklog))
	_, msg := press(t, m, "L")
	assert.Nil(t, msg)

	m = typeKey(m, "/")
	m = typeKey(m, "esc")
	assert.Empty(t, m.Filter())
	assert.Equal(t, 3, m.Count(model.StatusBacklog))
}

func TestLoadForOtherProjectIsIgnored(t *testing.T) {
	m := seeded(t)
	other := "p1"
	m, _ = m.Update(TasksLoadedMsg{ProjectID: &other, Tasks: nil})
	assert.Equal(t, 3, m.Count(model.StatusBacklog))
}
