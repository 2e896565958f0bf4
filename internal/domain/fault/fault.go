// Package fault defines the error categories shared by the domain services.
//
// Domain packages declare their sentinels as values of these types, so callers
// can match a specific failure with errors.Is and a whole category with
// errors.As. The HTTP layer maps categories to status codes.
package fault

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

// ValidationError reports malformed or rule-violating input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches any NotFoundError for the same entity when the target carries no ID,
// so a sentinel like cart.ErrNotFound matches errors built for a concrete id.
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return t.Entity == e.Entity && (t.ID == "" || t.ID == e.ID)
}

// ConflictError reports an operation that is valid in shape but not allowed in
// the current state of the entity, e.g. mutating an inactive cart.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// Validation returns a *ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFound returns a *NotFoundError for entity with the given id.
func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

// MaxFingerprintLength is the stored width of a client fingerprint.
const MaxFingerprintLength = 250

// MaxLength returns a *ValidationError when value is longer than n characters.
func MaxLength(field, value string, n int) error {
	if utf8.RuneCountInString(value) > n {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", n)}
	}
	return nil
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

// IsConflict reports whether err is (or wraps) a *ConflictError.
func IsConflict(err error) bool {
	var v *ConflictError
	return errors.As(err, &v)
}
