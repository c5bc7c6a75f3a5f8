package validate

import (
	"testing"

	"taskline/internal/domain"
)

func TestProjectNameConflict(t *testing.T) {
	projects := []domain.Project{
		{ID: 1, Name: "Alpha"},
		{ID: 2, Name: "Beta"},
	}
	if !ProjectNameConflict("Alpha", 0, projects) {
		t.Fatal("duplicate name on create should conflict")
	}
	if ProjectNameConflict("Gamma", 0, projects) {
		t.Fatal("fresh name should not conflict")
	}
	// Updating project 1 to its own current name is not a self-conflict.
	if ProjectNameConflict("Alpha", 1, projects) {
		t.Fatal("record must be excluded from its own uniqueness scan")
	}
	if !ProjectNameConflict("Beta", 1, projects) {
		t.Fatal("renaming onto another project's name should conflict")
	}
}

func TestActionConflictScopedToProject(t *testing.T) {
	actions := []domain.Action{
		{ID: 1, ProjectID: 5, Description: "Ship"},
		{ID: 2, ProjectID: 6, Description: "Ship"},
	}
	if !ActionConflict(5, "Ship", 0, actions) {
		t.Fatal("same description in same project should conflict")
	}
	if ActionConflict(7, "Ship", 0, actions) {
		t.Fatal("same description under a different project should not conflict")
	}
	if ActionConflict(5, "Test", 0, actions) {
		t.Fatal("different description should not conflict")
	}
	// Update exclusion: action 1 keeping its own description.
	if ActionConflict(5, "Ship", 1, actions) {
		t.Fatal("record must be excluded from its own uniqueness scan")
	}
}

func TestProjectExists(t *testing.T) {
	projects := []domain.Project{{ID: 1}, {ID: 3}}
	if !ProjectExists(3, projects) {
		t.Fatal("existing project id should validate")
	}
	if ProjectExists(99, projects) {
		t.Fatal("unknown project id should not validate")
	}
	if ProjectExists(1, nil) {
		t.Fatal("empty snapshot validates nothing")
	}
}
