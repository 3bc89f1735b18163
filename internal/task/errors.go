package task

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can react without string
// matching. Storage failures are wrapped, never passed through raw.
type ErrorKind string

const (
	// KindNotFound means an unknown task or parent ID was referenced.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindValidation means a field failed validation (empty title,
	// bad enum value, malformed ID).
	KindValidation ErrorKind = "VALIDATION"
	// KindHierarchyCycle means a parent chain loops.
	KindHierarchyCycle ErrorKind = "HIERARCHY_CYCLE"
	// KindDatabase means the storage collaborator failed.
	KindDatabase ErrorKind = "DATABASE_ERROR"
	// KindDependency means a renumbering cascade could not complete
	// consistently.
	KindDependency ErrorKind = "DEPENDENCY_ERROR"
)

// Error is the uniform failure shape crossing component boundaries.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapErr attaches a cause to a kinded error.
func WrapErr(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err (or anything it wraps) is an Error of the
// given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}
