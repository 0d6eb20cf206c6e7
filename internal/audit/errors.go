package audit

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below match these with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already counted")
	ErrBusy          = errors.New("another operation is in progress")
	ErrAuditClosed   = errors.New("audit is no longer active")
	ErrNoActiveAudit = errors.New("no active audit")
	ErrInvalid       = errors.New("invalid input")
)

// ValidationError is returned before any persistence call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// NotFoundError means a token, counted item or audit matched nothing, or a
// token matched more than one chromebook.
type NotFoundError struct {
	Kind      string
	Token     string
	Ambiguous bool
}

func (e *NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "chromebook"
	}
	if e.Ambiguous {
		return fmt.Sprintf("%q matches more than one %s", e.Token, kind)
	}
	return fmt.Sprintf("%s %q not found", kind, e.Token)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateError means the chromebook was already counted in this audit.
type DuplicateError struct {
	Code string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("chromebook %s already counted", e.Code)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// PersistenceError wraps a failed repository call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
