package validate

import (
	"strings"
	"testing"
)

func TestProjectCreateContract(t *testing.T) {
	cases := []struct {
		name      string
		rec       Record
		wantField string
		wantKind  Violation
	}{
		{
			name: "valid",
			rec:  Record{"name": "Launch", "description": "Q1"},
		},
		{
			name:      "empty name",
			rec:       Record{"name": "", "description": "Q1"},
			wantField: "name",
			wantKind:  MissingField,
		},
		{
			name:      "missing name",
			rec:       Record{"description": "Q1"},
			wantField: "name",
			wantKind:  MissingField,
		},
		{
			name:      "missing description",
			rec:       Record{"name": "Launch"},
			wantField: "description",
			wantKind:  MissingField,
		},
		{
			name:      "empty description",
			rec:       Record{"name": "Launch", "description": ""},
			wantField: "description",
			wantKind:  MissingField,
		},
		{
			name:      "name not a string",
			rec:       Record{"name": float64(7), "description": "Q1"},
			wantField: "name",
			wantKind:  WrongType,
		},
		{
			name:      "completed forbidden on create",
			rec:       Record{"name": "Launch", "description": "Q1", "completed": false},
			wantField: "",
			wantKind:  WrongFieldSet,
		},
		{
			name:      "extra field",
			rec:       Record{"name": "Launch", "description": "Q1", "owner": "sam"},
			wantField: "",
			wantKind:  WrongFieldSet,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckRecord(KindProject, ModeCreate, tc.rec)
			if tc.wantKind == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s on %q, got valid", tc.wantKind, tc.wantField)
			}
			if err.Field != tc.wantField || err.Violation != tc.wantKind {
				t.Fatalf("got field=%q violation=%s, want field=%q violation=%s", err.Field, err.Violation, tc.wantField, tc.wantKind)
			}
		})
	}
}

func TestProjectUpdateContract(t *testing.T) {
	valid := Record{"name": "Launch", "description": "Q1", "completed": true}
	if err := CheckRecord(KindProject, ModeUpdate, valid); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	noCompleted := Record{"name": "Launch", "description": "Q1"}
	err := CheckRecord(KindProject, ModeUpdate, noCompleted)
	if err == nil || err.Field != "completed" || err.Violation != MissingField {
		t.Fatalf("expected missing completed, got %v", err)
	}

	badCompleted := Record{"name": "Launch", "description": "Q1", "completed": "yes"}
	err = CheckRecord(KindProject, ModeUpdate, badCompleted)
	if err == nil || err.Field != "completed" || err.Violation != WrongType {
		t.Fatalf("expected wrong type on completed, got %v", err)
	}
}

func TestActionContract(t *testing.T) {
	valid := Record{"project_id": float64(1), "description": "Ship", "notes": "N"}
	if err := CheckRecord(KindAction, ModeCreate, valid); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	noProject := Record{"description": "Ship", "notes": "N"}
	err := CheckRecord(KindAction, ModeCreate, noProject)
	if err == nil || err.Field != "project_id" || err.Violation != MissingField {
		t.Fatalf("expected missing project_id, got %v", err)
	}

	badProject := Record{"project_id": "one", "description": "Ship", "notes": "N"}
	err = CheckRecord(KindAction, ModeCreate, badProject)
	if err == nil || err.Field != "project_id" || err.Violation != WrongType {
		t.Fatalf("expected wrong type on project_id, got %v", err)
	}

	update := Record{"project_id": float64(1), "description": "Ship", "notes": "N", "completed": false}
	if err := CheckRecord(KindAction, ModeUpdate, update); err != nil {
		t.Fatalf("expected valid update, got %v", err)
	}
	if err := CheckRecord(KindAction, ModeCreate, update); err == nil || err.Violation != WrongFieldSet {
		t.Fatalf("expected field-set violation for completed on create, got %v", err)
	}
}

func TestLengthBoundary(t *testing.T) {
	exact := strings.Repeat("x", MaxFieldLen)
	if err := CheckRecord(KindProject, ModeCreate, Record{"name": exact, "description": "d"}); err != nil {
		t.Fatalf("128-char name should be accepted, got %v", err)
	}
	over := strings.Repeat("x", MaxFieldLen+1)
	err := CheckRecord(KindProject, ModeCreate, Record{"name": over, "description": "d"})
	if err == nil || err.Violation != TooLong {
		t.Fatalf("129-char name should be rejected as too long, got %v", err)
	}
	err = CheckRecord(KindAction, ModeCreate, Record{"project_id": float64(1), "description": over, "notes": "n"})
	if err == nil || err.Violation != TooLong {
		t.Fatalf("129-char description should be rejected as too long, got %v", err)
	}
}

func TestShortCircuitReportsFirstViolation(t *testing.T) {
	// Both name and description are bad; only the name violation surfaces.
	rec := Record{"name": "", "description": ""}
	err := CheckRecord(KindProject, ModeCreate, rec)
	if err == nil || err.Field != "name" {
		t.Fatalf("expected the name violation first, got %v", err)
	}
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{"name": "Launch", "completed": true, "project_id": float64(42)}
	if got := rec.String("name"); got != "Launch" {
		t.Fatalf("String: got %q", got)
	}
	if !rec.Bool("completed") {
		t.Fatal("Bool: expected true")
	}
	if got := rec.Int64("project_id"); got != 42 {
		t.Fatalf("Int64: got %d", got)
	}
	if got := rec.Int64("missing"); got != 0 {
		t.Fatalf("Int64 missing: got %d", got)
	}
}
