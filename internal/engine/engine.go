package engine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskline/internal/domain"
	"taskline/internal/events"
	"taskline/internal/repo"
	"taskline/internal/validate"
)

// Engine orchestrates validation, consistency checks, and commits for the
// project and action resources. It holds no per-request state; one value is
// constructed at startup and shared by every request.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Now    func() time.Time
}

func New(db *sql.DB) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Now:    time.Now,
	}
}

// ListProjects is a pass-through read.
func (e Engine) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return e.Repo.ListProjects(ctx)
}

// GetProject is a pass-through read; absence surfaces as repo.ErrNotFound.
func (e Engine) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	return e.Repo.GetProject(ctx, id)
}

// ListProjectActions is a pass-through read.
func (e Engine) ListProjectActions(ctx context.Context, projectID int64) ([]domain.Action, error) {
	return e.Repo.ListProjectActions(ctx, projectID)
}

// CreateProject validates rec, rejects duplicate names against the current
// snapshot, and commits. The unique index on projects(name) backstops
// writers racing past the same snapshot; a constraint trip at commit is
// reported as the same conflict.
func (e Engine) CreateProject(ctx context.Context, rec validate.Record) (domain.Project, error) {
	if ferr := validate.CheckRecord(validate.KindProject, validate.ModeCreate, rec); ferr != nil {
		return domain.Project{}, validationError(validate.KindProject, ferr)
	}
	projects, err := e.Repo.ListProjects(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	name := rec.String("name")
	if validate.ProjectNameConflict(name, 0, projects) {
		return domain.Project{}, ConflictError{Message: "please provide a unique name for the project"}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	p, err := e.Repo.InsertProject(ctx, tx, domain.Project{
		Name:        name,
		Description: rec.String("description"),
	})
	if err != nil {
		return domain.Project{}, conflictOr(err, "please provide a unique name for the project")
	}
	if err := e.Events.Append(ctx, tx, "project.created", "project", p.ID, events.EventPayload{"name": p.Name}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// UpdateProject replaces the full record at id. Every contract field,
// completed included, must be present in rec.
func (e Engine) UpdateProject(ctx context.Context, id int64, rec validate.Record) (domain.Project, error) {
	if ferr := validate.CheckRecord(validate.KindProject, validate.ModeUpdate, rec); ferr != nil {
		return domain.Project{}, validationError(validate.KindProject, ferr)
	}
	projects, err := e.Repo.ListProjects(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	name := rec.String("name")
	if validate.ProjectNameConflict(name, id, projects) {
		return domain.Project{}, ConflictError{Message: "please provide a unique name for the project"}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	p, err := e.Repo.UpdateProject(ctx, tx, domain.Project{
		ID:          id,
		Name:        name,
		Description: rec.String("description"),
		Completed:   rec.Bool("completed"),
	})
	if err != nil {
		return domain.Project{}, conflictOr(err, "please provide a unique name for the project")
	}
	if err := e.Events.Append(ctx, tx, "project.updated", "project", p.ID, events.EventPayload{"name": p.Name, "completed": p.Completed}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// DeleteProject removes the project and its actions (the schema cascades).
// The returned count distinguishes "deleted" from "nothing to delete".
func (e Engine) DeleteProject(ctx context.Context, id int64) (int64, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	n, err := e.Repo.DeleteProject(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := e.Events.Append(ctx, tx, "project.deleted", "project", id, nil); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// LatestEvents is a pass-through read over the audit log.
func (e Engine) LatestEvents(ctx context.Context, limit int, evtType, entityKind string) ([]domain.Event, error) {
	return e.Repo.LatestEvents(ctx, limit, evtType, entityKind)
}

// conflictOr maps the repo's constraint sentinel to a ConflictError with the
// given message and leaves every other error (not-found, storage failure)
// untouched.
func conflictOr(err error, msg string) error {
	if errors.Is(err, repo.ErrConflict) {
		return ConflictError{Message: msg}
	}
	return err
}
