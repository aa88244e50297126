package projectmgr

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/keys"
	"github.com/nhle/taskdown/internal/model"
)

type fakeProjects struct {
	projects []model.Project
	created  []model.NewProject
	updated  map[string]model.ProjectChanges
	deleted  []string
}

func (f *fakeProjects) ListProjects(context.Context) ([]model.Project, error) {
	return f.projects, nil
}

func (f *fakeProjects) CreateProject(_ context.Context, in model.NewProject) (*model.Project, error) {
	f.created = append(f.created, in)
	return &model.Project{ID: "new", Name: in.Name}, nil
}

func (f *fakeProjects) UpdateProject(_ context.Context, id string, c model.ProjectChanges) (*model.Project, error) {
	if f.updated == nil {
		f.updated = map[string]model.ProjectChanges{}
	}
	f.updated[id] = c
	return &model.Project{ID: id}, nil
}

func (f *fakeProjects) DeleteProject(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func loaded(t *testing.T, f *fakeProjects) Model {
	t.Helper()
	m := New(f, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(m.Init()())
	return m
}

func TestListAndChoose(t *testing.T) {
	f := &fakeProjects{projects: []model.Project{
		{ID: "p1", Name: "Home", Color: "#112233"},
		{ID: "p2", Name: "Work", Color: "#445566"},
	}}
	m := loaded(t, f)
	assert.Contains(t, m.View(), "Work")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	p, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "p2", p.ID)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	p, _ = m.Selected()
	assert.Equal(t, "p1", p.ID, "selection wraps")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, ChosenMsg{ID: "p1"}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}

func TestSaveNewProjectDefaultsColor(t *testing.T) {
	f := &fakeProjects{}
	m := loaded(t, f)
	*m.fb = formBindings{name: "  Garden "}

	msg := m.saveProject()()
	assert.Equal(t, projectSavedMsg{}, msg)
	require.Len(t, f.created, 1)
	assert.Equal(t, "Garden", f.created[0].Name)
	assert.Equal(t, model.DefaultProjectColor, f.created[0].Color)
	assert.Nil(t, f.created[0].Icon)
}

func TestSaveEditSendsOnlyChanges(t *testing.T) {
	icon := "🏠"
	f := &fakeProjects{projects: []model.Project{{ID: "p1", Name: "Home", Color: "#112233", Icon: &icon}}}
	m := loaded(t, f)
	p, _ := m.Selected()
	m.editing = &p
	*m.fb = formBindings{name: "House", color: "#112233"}

	m.saveProject()()
	c := f.updated["p1"]
	require.NotNil(t, c.Name)
	assert.Equal(t, "House", *c.Name)
	assert.Nil(t, c.Color)
	assert.True(t, c.ClearIcon)
}

func TestDeleteReportsChange(t *testing.T) {
	f := &fakeProjects{projects: []model.Project{{ID: "p1", Name: "Home"}}}
	m := loaded(t, f)

	m, _ = m.Update(m.deleteProject("p1")())
	assert.Equal(t, []string{"p1"}, f.deleted)
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.View(), "Project deleted")
}

func TestValidateColor(t *testing.T) {
	assert.NoError(t, validateColor(""))
	assert.NoError(t, validateColor("#a1B2c3"))
	assert.Error(t, validateColor("red"))
}
