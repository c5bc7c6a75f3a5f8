package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"taskline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write trips a uniqueness or foreign-key
	// constraint at commit time. The engine normally catches conflicts
	// against a snapshot first; the constraint is the atomic backstop for
	// writers racing past the same snapshot.
	ErrConflict = errors.New("conflict")
)

func constraintErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return ErrConflict
	}
	return err
}

func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,description,completed FROM projects ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Completed); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	var p domain.Project
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,description,completed FROM projects WHERE id=?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Completed)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// InsertProject stores p and returns it with the repository-assigned id.
func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.Project) (domain.Project, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO projects(name,description) VALUES (?,?)`, p.Name, p.Description)
	if err != nil {
		return domain.Project{}, constraintErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Project{}, err
	}
	p.ID = id
	return p, nil
}

// UpdateProject replaces every contract field of the project in place.
func (r Repo) UpdateProject(ctx context.Context, tx *sql.Tx, p domain.Project) (domain.Project, error) {
	res, err := tx.ExecContext(ctx, `UPDATE projects SET name=?, description=?, completed=? WHERE id=?`,
		p.Name, p.Description, p.Completed, p.ID)
	if err != nil {
		return domain.Project{}, constraintErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Project{}, ErrNotFound
	}
	return p, nil
}

// DeleteProject removes the project and reports how many rows went away,
// so callers can tell "deleted" from "nothing to delete".
func (r Repo) DeleteProject(ctx context.Context, tx *sql.Tx, id int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ListProjectActions returns the actions belonging to one project.
func (r Repo) ListProjectActions(ctx context.Context, projectID int64) ([]domain.Action, error) {
	return r.listActions(ctx, `SELECT id,project_id,description,notes,completed FROM actions WHERE project_id=? ORDER BY id ASC`, projectID)
}
