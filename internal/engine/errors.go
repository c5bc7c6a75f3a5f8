package engine

import (
	"fmt"

	"taskline/internal/validate"
)

// ValidationError reports a field-contract violation in a submitted record.
// It always maps to a client error; no storage was touched.
type ValidationError struct {
	Kind      validate.Kind
	Field     string
	Violation validate.Violation
}

func (e ValidationError) Error() string {
	switch e.Violation {
	case validate.TooLong:
		return fmt.Sprintf("please provide a valid %s for the %s (%d chars max)", e.Field, e.Kind, validate.MaxFieldLen)
	case validate.WrongType:
		return fmt.Sprintf("field %s of the %s has the wrong type", e.Field, e.Kind)
	case validate.WrongFieldSet:
		return fmt.Sprintf("please provide exactly the expected fields for the %s", e.Kind)
	default:
		return fmt.Sprintf("please provide a valid %s for the %s", e.Field, e.Kind)
	}
}

// ConflictError reports a uniqueness or referential-integrity violation
// against the current dataset. The write was rejected before (or at) commit.
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string { return e.Message }

func validationError(kind validate.Kind, ferr *validate.FieldError) error {
	return ValidationError{Kind: kind, Field: ferr.Field, Violation: ferr.Violation}
}
