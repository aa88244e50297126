package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskdown/internal/model"
)

const projectColumns = "id, name, color, icon, sort_order, created_at, updated_at"

func validateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "project name must not be empty"}
	}
	return nil
}

func validateColor(color string) error {
	if !strings.HasPrefix(color, "#") || len(color) < 4 {
		return &ValidationError{Field: "color", Message: fmt.Sprintf("%q is not a hex color", color)}
	}
	return nil
}

// ListProjects returns every project ordered by sort order.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects := []model.Project{}
	err := s.db.SelectContext(ctx, &projects,
		"SELECT "+projectColumns+" FROM projects ORDER BY sort_order, created_at, id")
	if err != nil {
		return nil, classify("listing projects", err)
	}
	return projects, nil
}

// GetProject returns the project with id, or nil when there is none.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return getProject(ctx, s.db, id)
}

func getProject(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Project, error) {
	var p model.Project
	err := sqlx.GetContext(ctx, q, &p, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("getting project %s", id), err)
	}
	return &p, nil
}

// CreateProject inserts a new project with a fresh id and default color.
func (s *SQLiteStore) CreateProject(ctx context.Context, in model.NewProject) (*model.Project, error) {
	if err := validateProjectName(in.Name); err != nil {
		return nil, err
	}
	color := in.Color
	if color == "" {
		color = model.DefaultProjectColor
	}
	if err := validateColor(color); err != nil {
		return nil, err
	}

	now := s.timestamp()
	p := model.Project{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Color:     color,
		Icon:      in.Icon,
		SortOrder: in.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO projects (id, name, color, icon, sort_order, created_at, updated_at)
		VALUES (:id, :name, :color, :icon, :sort_order, :created_at, :updated_at)`, p)
	if err != nil {
		return nil, classify("creating project", err)
	}
	return &p, nil
}

// UpdateProject writes the supplied fields and refreshes updated_at.
func (s *SQLiteStore) UpdateProject(
	ctx context.Context,
	id string,
	changes model.ProjectChanges,
) (*model.Project, error) {
	var sets []string
	var args []any

	if changes.Name != nil {
		if err := validateProjectName(*changes.Name); err != nil {
			return nil, err
		}
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*changes.Name))
	}
	if changes.Color != nil {
		if err := validateColor(*changes.Color); err != nil {
			return nil, err
		}
		sets = append(sets, "color = ?")
		args = append(args, *changes.Color)
	}
	switch {
	case changes.ClearIcon:
		sets = append(sets, "icon = NULL")
	case changes.Icon != nil:
		sets = append(sets, "icon = ?")
		args = append(args, *changes.Icon)
	}
	if changes.SortOrder != nil {
		sets = append(sets, "sort_order = ?")
		args = append(args, *changes.SortOrder)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	op := fmt.Sprintf("updating project %s", id)
	var updated *model.Project
	err := s.inTx(ctx, op, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		updated, err = getProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProject removes a project. Its tasks are moved to the Inbox in the
// same transaction.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) (int64, error) {
	var detached int64
	err := s.inTx(ctx, fmt.Sprintf("deleting project %s", id), func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE tasks SET project_id = NULL, updated_at = ? WHERE project_id = ?",
			s.timestamp(), id)
		if err != nil {
			return err
		}
		detached, _ = result.RowsAffected()

		result, err = tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return detached, nil
}
