package taskform

import (
	"testing"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/richtext"
)

func newForm() Model {
	return New(Options{ReminderTime: "08:30", Location: time.UTC}, 80, 24)
}

func TestCreateResult(t *testing.T) {
	m := newForm()
	project := "p1"
	m.StartCreate(&project, model.StatusNext)
	assert.False(t, m.Editing())
	assert.NotEmpty(t, m.View())

	m.fb.title = "  Buy milk  "
	m.fb.notes = "two litres"
	m.fb.dueDate = "2026-03-01"
	m.fb.remindAt = "2026-02-28"

	msg, ok := m.result().(TaskCreatedMsg)
	require.True(t, ok)
	assert.Equal(t, "Buy milk", msg.Task.Title)
	assert.Equal(t, richtext.FromPlainText("two litres"), msg.Task.Content)
	assert.Equal(t, model.StatusNext, msg.Task.Status)
	require.NotNil(t, msg.Task.ProjectID)
	assert.Equal(t, "p1", *msg.Task.ProjectID)
	require.NotNil(t, msg.Task.DueDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *msg.Task.DueDate)
	require.NotNil(t, msg.RemindAt)
	assert.Equal(t, time.Date(2026, 2, 28, 8, 30, 0, 0, time.UTC), *msg.RemindAt)
}

func TestCreateInInboxWithoutNote(t *testing.T) {
	m := newForm()
	m.StartCreate(nil, "bogus")
	m.fb.title = "Call"

	msg := m.result().(TaskCreatedMsg)
	assert.Nil(t, msg.Task.ProjectID)
	assert.Equal(t, model.StatusBacklog, msg.Task.Status)
	assert.Equal(t, model.EmptyContent, msg.Task.Content)
	assert.Nil(t, msg.Task.DueDate)
	assert.Nil(t, msg.RemindAt)
}

func TestEditCarriesOnlyChanges(t *testing.T) {
	due := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	project := "p1"
	task := model.Task{
		ID:        "t1",
		Title:     "Report",
		Status:    model.StatusBacklog,
		DueDate:   &due,
		ProjectID: &project,
	}

	m := newForm()
	m.StartEdit(task)
	require.True(t, m.Editing())

	unchanged := m.result().(TaskUpdatedMsg)
	assert.Equal(t, "t1", unchanged.ID)
	assert.True(t, unchanged.Changes.Empty())

	m.fb.status = model.StatusDone
	m.fb.dueDate = ""
	m.fb.projectID = ""
	edited := m.result().(TaskUpdatedMsg)
	assert.Nil(t, edited.Changes.Title)
	require.NotNil(t, edited.Changes.Status)
	assert.Equal(t, model.StatusDone, *edited.Changes.Status)
	assert.True(t, edited.Changes.ClearDueDate)
	assert.True(t, edited.Changes.ClearProject)
}

func optionValues(opts []huh.Option[string]) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

func TestProjectOptionsKeepUnlistedProject(t *testing.T) {
	assert.Equal(t, []string{""}, optionValues(projectOptions(nil, "")))
	assert.Equal(t, []string{"", "p9"}, optionValues(projectOptions(nil, "p9")))

	projects := []model.Project{{ID: "p1", Name: "Home"}, {ID: "p2", Name: "Work"}}
	assert.Equal(t, []string{"", "p1", "p2"}, optionValues(projectOptions(projects, "p2")))
	assert.Equal(t, []string{"", "p1", "p2", "p9"}, optionValues(projectOptions(projects, "p9")))
}

func TestEditKeepsProjectWhenListIsStale(t *testing.T) {
	project := "p9"
	m := newForm()
	m.SetProjects([]model.Project{{ID: "p1", Name: "Home"}})
	m.StartEdit(model.Task{ID: "t1", Title: "Report", Status: model.StatusNext, ProjectID: &project})

	msg := m.result().(TaskUpdatedMsg)
	assert.False(t, msg.Changes.ClearProject)
	assert.True(t, msg.Changes.Empty())
}

func TestValidators(t *testing.T) {
	m := newForm()
	assert.NoError(t, m.validateOptionalDate(""))
	assert.NoError(t, m.validateOptionalDate("2026-01-02"))
	assert.Error(t, m.validateOptionalDate("02/01/2026"))

	assert.NoError(t, m.validateOptionalReminder("2026-01-02 14:00"))
	assert.Error(t, m.validateOptionalReminder("tomorrow"))

	assert.Error(t, validateRequired("Title")("   "))
}
