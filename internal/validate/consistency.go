package validate

import "taskline/internal/domain"

// Consistency checks operate on a snapshot of current records supplied by
// the caller; they never read storage themselves. excludeID 0 excludes
// nothing (creates); updates pass the target record's own id so it is not
// compared against itself.

// ProjectNameConflict reports whether another project already uses name.
// Project names are unique across the whole dataset.
func ProjectNameConflict(name string, excludeID int64, projects []domain.Project) bool {
	for _, p := range projects {
		if p.ID == excludeID {
			continue
		}
		if p.Name == name {
			return true
		}
	}
	return false
}

// ActionConflict reports whether another action in the same project already
// uses description. Scoping matters: the same description under a different
// project is not a conflict.
func ActionConflict(projectID int64, description string, excludeID int64, actions []domain.Action) bool {
	for _, a := range actions {
		if a.ID == excludeID {
			continue
		}
		if a.ProjectID == projectID && a.Description == description {
			return true
		}
	}
	return false
}

// ProjectExists reports whether projectID references a live project.
func ProjectExists(projectID int64, projects []domain.Project) bool {
	for _, p := range projects {
		if p.ID == projectID {
			return true
		}
	}
	return false
}
