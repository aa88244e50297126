// Package kanban places tasks inside status columns and applies moves
// optimistically through the query cache.
package kanban

import (
	"sort"

	"github.com/nhle/taskdown/internal/model"
)

// Gap is the sort-order spacing between neighbours appended at either end
// of a column.
const Gap = 1000

// SortOrderAt returns the sort order for a task dropped at index of column.
// column is the destination column in visual order, without the moved task.
func SortOrderAt(column []model.Task, index int) int {
	n := len(column)
	switch {
	case n == 0:
		return Gap
	case index <= 0:
		return max(0, column[0].SortOrder-Gap)
	case index >= n:
		return column[n-1].SortOrder + Gap
	}
	prev, next := column[index-1].SortOrder, column[index].SortOrder
	return floorDiv(prev+next, 2)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Fits reports whether order sits strictly between the neighbours of index.
// A false result means the column has run out of room there.
func Fits(column []model.Task, index, order int) bool {
	if index > 0 && index <= len(column) && order <= column[index-1].SortOrder {
		return false
	}
	if index >= 0 && index < len(column) && order >= column[index].SortOrder {
		return false
	}
	return true
}

// Column returns the tasks with status in visual order, leaving out
// excludeID. The input is not modified.
func Column(tasks []model.Task, status model.TaskStatus, excludeID string) []model.Task {
	col := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == status && t.ID != excludeID {
			col = append(col, t)
		}
	}
	SortTasks(col)
	return col
}

// SortTasks orders tasks the way the store lists them: sort order, then
// creation time, then id.
func SortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Board groups a container's tasks into the four columns.
func Board(tasks []model.Task) map[model.TaskStatus][]model.Task {
	board := make(map[model.TaskStatus][]model.Task, len(model.Statuses))
	for _, st := range model.Statuses {
		board[st] = Column(tasks, st, "")
	}
	return board
}
