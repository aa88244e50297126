package kanban

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nhle/taskdown/internal/cache"
	"github.com/nhle/taskdown/internal/model"
	"github.com/nhle/taskdown/internal/query"
	"github.com/nhle/taskdown/internal/store"
)

// MoveRequest drops a task at Index of the Status column of the container
// ProjectID (nil = Inbox). Index counts positions in the destination column
// without the moved task.
type MoveRequest struct {
	TaskID    string
	ProjectID *string
	Status    model.TaskStatus
	Index     int
}

// Options configure an Engine.
type Options struct {
	Logger *slog.Logger
	// DisableRenumber keeps the plain midpoint even when neighbours leave no
	// room, accepting duplicate sort orders.
	DisableRenumber bool
}

// Engine applies moves to the cache before the store confirms them and
// rolls the cache back when the store refuses.
type Engine struct {
	client   *query.Client
	cache    *cache.Cache
	logger   *slog.Logger
	renumber bool
}

// NewEngine creates an Engine on top of client.
func NewEngine(client *query.Client, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:   client,
		cache:    client.Cache(),
		logger:   logger,
		renumber: !opts.DisableRenumber,
	}
}

// plan is the outcome of placing one task.
type plan struct {
	moved      model.Task
	placements []store.ColumnPlacement
}

func (e *Engine) plan(tasks []model.Task, req MoveRequest) (plan, error) {
	var task *model.Task
	for i := range tasks {
		if tasks[i].ID == req.TaskID {
			task = &tasks[i]
			break
		}
	}
	if task == nil {
		return plan{}, fmt.Errorf("task %s in this list: %w", req.TaskID, store.ErrNotFound)
	}

	dest := Column(tasks, req.Status, req.TaskID)
	index := min(max(req.Index, 0), len(dest))
	order := SortOrderAt(dest, index)

	p := plan{moved: *task}
	p.moved.Status = req.Status
	p.moved.SortOrder = order

	if e.renumber && !Fits(dest, index, order) {
		p.placements = make([]store.ColumnPlacement, 0, len(dest)+1)
		pos := 0
		place := func(id string) {
			pos++
			p.placements = append(p.placements, store.ColumnPlacement{TaskID: id, SortOrder: pos * Gap})
		}
		for i, t := range dest {
			if i == index {
				place(req.TaskID)
			}
			place(t.ID)
		}
		if index == len(dest) {
			place(req.TaskID)
		}
		for _, pl := range p.placements {
			if pl.TaskID == req.TaskID {
				p.moved.SortOrder = pl.SortOrder
			}
		}
	}
	return p, nil
}

// apply returns a new task list with the plan applied; tasks is untouched.
func (p plan) apply(tasks []model.Task) []model.Task {
	orders := make(map[string]int, len(p.placements))
	for _, pl := range p.placements {
		orders[pl.TaskID] = pl.SortOrder
	}

	next := make([]model.Task, len(tasks))
	copy(next, tasks)
	for i := range next {
		if next[i].ID == p.moved.ID {
			next[i] = p.moved
			continue
		}
		if o, ok := orders[next[i].ID]; ok {
			next[i].SortOrder = o
		}
	}
	SortTasks(next)
	return next
}

// Move places a task. The container's cached list reflects the move as soon
// as Move starts; if the store write fails or ctx is cancelled the list is
// restored to its exact prior state and the error is returned.
func (e *Engine) Move(ctx context.Context, req MoveRequest) (*model.Task, error) {
	if !req.Status.Valid() {
		return nil, &store.ValidationError{Field: "status", Message: fmt.Sprintf("%q is not a column", req.Status)}
	}

	tasks, err := e.client.ListTasks(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	p, err := e.plan(tasks, req)
	if err != nil {
		return nil, err
	}

	key := cache.TasksKey(req.ProjectID)
	snap := e.cache.Optimistic(key, func(old any, ok bool) any {
		current := tasks
		if list, isList := old.([]model.Task); ok && isList {
			current = list
		}
		return p.apply(current)
	})

	var moved *model.Task
	if len(p.placements) > 0 {
		e.logger.Debug("renumbering column", "status", req.Status, "tasks", len(p.placements))
		moved, err = e.client.PlaceTask(ctx, req.TaskID, req.Status, p.placements)
	} else {
		moved, err = e.client.MoveTask(ctx, req.TaskID, req.Status, p.moved.SortOrder)
	}
	if err != nil {
		e.cache.Restore(snap)
		e.logger.Warn("task move rolled back",
			"task_id", req.TaskID, "status", req.Status, "index", req.Index, "error", err)
		return nil, err
	}
	return moved, nil
}

// Create inserts a task at the head of its column with the default sort
// order 0. An empty status means backlog. Tasks sharing order 0 keep creation
// order until a move places them.
func (e *Engine) Create(ctx context.Context, in model.NewTask) (*model.Task, error) {
	if in.Status == "" {
		in.Status = model.StatusBacklog
	}
	if !in.Status.Valid() {
		return nil, &store.ValidationError{Field: "status", Message: fmt.Sprintf("%q is not a column", in.Status)}
	}
	in.SortOrder = 0
	return e.client.CreateTask(ctx, in)
}
