package engine

import (
	"context"

	"taskline/internal/domain"
	"taskline/internal/events"
	"taskline/internal/validate"
)

// ListActions is a pass-through read.
func (e Engine) ListActions(ctx context.Context) ([]domain.Action, error) {
	return e.Repo.ListActions(ctx)
}

// GetAction is a pass-through read; absence surfaces as repo.ErrNotFound.
func (e Engine) GetAction(ctx context.Context, id int64) (domain.Action, error) {
	return e.Repo.GetAction(ctx, id)
}

// CreateAction validates rec, checks description uniqueness inside the
// target project, verifies the project reference, and commits. Description
// uniqueness is scoped per project: two actions under different projects may
// share a description.
func (e Engine) CreateAction(ctx context.Context, rec validate.Record) (domain.Action, error) {
	if ferr := validate.CheckRecord(validate.KindAction, validate.ModeCreate, rec); ferr != nil {
		return domain.Action{}, validationError(validate.KindAction, ferr)
	}
	a := domain.Action{
		ProjectID:   rec.Int64("project_id"),
		Description: rec.String("description"),
		Notes:       rec.String("notes"),
	}
	if err := e.checkActionConsistency(ctx, a, 0); err != nil {
		return domain.Action{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Action{}, err
	}
	defer tx.Rollback()
	created, err := e.Repo.InsertAction(ctx, tx, a)
	if err != nil {
		return domain.Action{}, conflictOr(err, "please provide a unique description for the action")
	}
	if err := e.Events.Append(ctx, tx, "action.created", "action", created.ID, events.EventPayload{"project_id": created.ProjectID}); err != nil {
		return domain.Action{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Action{}, err
	}
	return created, nil
}

// UpdateAction replaces the full record at id, excluding the record itself
// from the uniqueness scan so an unchanged description never self-conflicts.
func (e Engine) UpdateAction(ctx context.Context, id int64, rec validate.Record) (domain.Action, error) {
	if ferr := validate.CheckRecord(validate.KindAction, validate.ModeUpdate, rec); ferr != nil {
		return domain.Action{}, validationError(validate.KindAction, ferr)
	}
	a := domain.Action{
		ID:          id,
		ProjectID:   rec.Int64("project_id"),
		Description: rec.String("description"),
		Notes:       rec.String("notes"),
		Completed:   rec.Bool("completed"),
	}
	if err := e.checkActionConsistency(ctx, a, id); err != nil {
		return domain.Action{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Action{}, err
	}
	defer tx.Rollback()
	updated, err := e.Repo.UpdateAction(ctx, tx, a)
	if err != nil {
		return domain.Action{}, conflictOr(err, "please provide a unique description for the action")
	}
	if err := e.Events.Append(ctx, tx, "action.updated", "action", updated.ID, events.EventPayload{"project_id": updated.ProjectID, "completed": updated.Completed}); err != nil {
		return domain.Action{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Action{}, err
	}
	return updated, nil
}

// DeleteAction removes the action and reports the affected-row count.
func (e Engine) DeleteAction(ctx context.Context, id int64) (int64, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	n, err := e.Repo.DeleteAction(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := e.Events.Append(ctx, tx, "action.deleted", "action", id, nil); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// checkActionConsistency runs the snapshot checks shared by create and
// update: scoped description uniqueness first, then the project reference.
func (e Engine) checkActionConsistency(ctx context.Context, a domain.Action, excludeID int64) error {
	actions, err := e.Repo.ListActions(ctx)
	if err != nil {
		return err
	}
	if validate.ActionConflict(a.ProjectID, a.Description, excludeID, actions) {
		return ConflictError{Message: "please provide a unique description for the action"}
	}
	projects, err := e.Repo.ListProjects(ctx)
	if err != nil {
		return err
	}
	if !validate.ProjectExists(a.ProjectID, projects) {
		return ConflictError{Message: "please provide a valid project_id for the action"}
	}
	return nil
}
