package ledger

import (
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("already exists")
	ErrAuthFailed = errors.New("invalid credentials")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")

	// ErrIDTaken is returned by Insert methods when the id is already in
	// use. Ids are only unique per process, so the ledger retries with a
	// fresh one.
	ErrIDTaken = errors.New("id already taken")
)

type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationError collects every field problem found in one input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Msg
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Msg: msg})
}

// err returns nil when nothing was added so callers can `return v.err()`.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
