package validate

import "fmt"

// MaxFieldLen caps name and description fields.
const MaxFieldLen = 128

type Kind string

const (
	KindProject Kind = "project"
	KindAction  Kind = "action"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

type Violation string

const (
	MissingField  Violation = "missing_field"
	TooLong       Violation = "too_long"
	WrongType     Violation = "wrong_type"
	WrongFieldSet Violation = "wrong_field_set"
)

// Record is a submitted entity body as decoded from JSON, before any
// field contract has been applied.
type Record map[string]any

// String returns the named field as a string. Only meaningful after the
// record passed CheckRecord.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Bool returns the named field as a bool.
func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Int64 returns the named field as an int64, accepting the float64 form
// encoding/json produces for JSON numbers.
func (r Record) Int64(field string) int64 {
	switch v := r[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// FieldError reports the first field-contract violation found in a record.
type FieldError struct {
	Field     string
	Violation Violation
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Violation)
}

// CheckRecord applies the field contract for the given resource kind and
// operation mode. Checks run in a fixed order and stop at the first
// violation; nil means the record is structurally valid. The check is pure
// and never consults stored state.
func CheckRecord(kind Kind, mode Mode, rec Record) *FieldError {
	switch kind {
	case KindProject:
		return checkProject(mode, rec)
	case KindAction:
		return checkAction(mode, rec)
	}
	return &FieldError{Field: string(kind), Violation: WrongType}
}

func checkProject(mode Mode, rec Record) *FieldError {
	if err := requireString(rec, "name", MaxFieldLen); err != nil {
		return err
	}
	if err := requireString(rec, "description", 0); err != nil {
		return err
	}
	want := 2
	if mode == ModeUpdate {
		if err := requireBool(rec, "completed"); err != nil {
			return err
		}
		want = 3
	}
	if len(rec) != want {
		return &FieldError{Field: "", Violation: WrongFieldSet}
	}
	return nil
}

func checkAction(mode Mode, rec Record) *FieldError {
	if err := requireString(rec, "description", MaxFieldLen); err != nil {
		return err
	}
	if err := requireString(rec, "notes", 0); err != nil {
		return err
	}
	if err := requireNumber(rec, "project_id"); err != nil {
		return err
	}
	want := 3
	if mode == ModeUpdate {
		if err := requireBool(rec, "completed"); err != nil {
			return err
		}
		want = 4
	}
	if len(rec) != want {
		return &FieldError{Field: "", Violation: WrongFieldSet}
	}
	return nil
}

// requireString checks presence, type, non-emptiness, and an optional
// length cap (maxLen 0 means uncapped).
func requireString(rec Record, field string, maxLen int) *FieldError {
	v, ok := rec[field]
	if !ok {
		return &FieldError{Field: field, Violation: MissingField}
	}
	s, ok := v.(string)
	if !ok {
		return &FieldError{Field: field, Violation: WrongType}
	}
	if s == "" {
		return &FieldError{Field: field, Violation: MissingField}
	}
	if maxLen > 0 && len(s) > maxLen {
		return &FieldError{Field: field, Violation: TooLong}
	}
	return nil
}

func requireBool(rec Record, field string) *FieldError {
	v, ok := rec[field]
	if !ok {
		return &FieldError{Field: field, Violation: MissingField}
	}
	if _, ok := v.(bool); !ok {
		return &FieldError{Field: field, Violation: WrongType}
	}
	return nil
}

func requireNumber(rec Record, field string) *FieldError {
	v, ok := rec[field]
	if !ok {
		return &FieldError{Field: field, Violation: MissingField}
	}
	switch v.(type) {
	case float64, int64, int:
		return nil
	}
	return &FieldError{Field: field, Violation: WrongType}
}
