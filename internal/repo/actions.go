package repo

import (
	"context"
	"database/sql"

	"taskline/internal/domain"
)

func (r Repo) ListActions(ctx context.Context) ([]domain.Action, error) {
	return r.listActions(ctx, `SELECT id,project_id,description,notes,completed FROM actions ORDER BY id ASC`)
}

func (r Repo) listActions(ctx context.Context, query string, args ...any) ([]domain.Action, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Action
	for rows.Next() {
		var a domain.Action
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Description, &a.Notes, &a.Completed); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) GetAction(ctx context.Context, id int64) (domain.Action, error) {
	var a domain.Action
	err := r.DB.QueryRowContext(ctx, `SELECT id,project_id,description,notes,completed FROM actions WHERE id=?`, id).
		Scan(&a.ID, &a.ProjectID, &a.Description, &a.Notes, &a.Completed)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

// InsertAction stores a and returns it with the repository-assigned id.
func (r Repo) InsertAction(ctx context.Context, tx *sql.Tx, a domain.Action) (domain.Action, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO actions(project_id,description,notes) VALUES (?,?,?)`,
		a.ProjectID, a.Description, a.Notes)
	if err != nil {
		return domain.Action{}, constraintErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Action{}, err
	}
	a.ID = id
	return a, nil
}

// UpdateAction replaces every contract field of the action in place.
func (r Repo) UpdateAction(ctx context.Context, tx *sql.Tx, a domain.Action) (domain.Action, error) {
	res, err := tx.ExecContext(ctx, `UPDATE actions SET project_id=?, description=?, notes=?, completed=? WHERE id=?`,
		a.ProjectID, a.Description, a.Notes, a.Completed, a.ID)
	if err != nil {
		return domain.Action{}, constraintErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Action{}, ErrNotFound
	}
	return a, nil
}

func (r Repo) DeleteAction(ctx context.Context, tx *sql.Tx, id int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM actions WHERE id=?`, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
