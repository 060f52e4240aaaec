package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the engine reports. NotFound,
// Conflict and Validation are expected, recoverable-by-caller outcomes;
// StorageUnavailable is fatal for the in-flight operation and is never
// retried at this layer.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidCredentials indicates login failure. Deliberately carries no
	// detail about which part of the credential was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error wraps a sentinel with enough context to render a precise message:
// which entity, which id, which field.
type Error struct {
	Err    error
	Entity string
	ID     int64
	Field  string
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Err, e.Detail)
	case e.Field != "":
		return fmt.Sprintf("%s: %s %s", e.Err, e.Entity, e.Field)
	case e.ID != 0:
		return fmt.Sprintf("%s: %s %d", e.Err, e.Entity, e.ID)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s", e.Err, e.Entity)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports an unknown id for the named entity.
func NotFound(entity string, id int64) error {
	return &Error{Err: ErrNotFound, Entity: entity, ID: id}
}

// Conflict reports a uniqueness violation on the named entity/field.
func Conflict(entity, field string) error {
	return &Error{Err: ErrConflict, Entity: entity, Field: field}
}

// Invalid reports malformed input for a field.
func Invalid(field, detail string) error {
	return &Error{Err: ErrValidation, Field: field, Detail: detail}
}

// Storage wraps an unexpected database failure.
func Storage(op string, err error) error {
	return &Error{Err: ErrStorageUnavailable, Detail: fmt.Sprintf("%s: %v", op, err)}
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
