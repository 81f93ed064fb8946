package task

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrTaskNotFound is returned when a mutation targets an unknown id.
	ErrTaskNotFound = errors.New("task not found")
)

// ValidationError describes bad input to create or update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceWarning reports a failed load or save against a backend.
// It is never fatal; the store keeps working in memory.
type PersistenceWarning struct {
	Op  string
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", w.Op, w.Err)
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }
