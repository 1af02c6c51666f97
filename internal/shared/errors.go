package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks user-correctable input errors.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict marks requests that collide with existing state.
	ErrConflict = errors.New("conflict")
	// ErrPersistence marks failures raised by the record store.
	ErrPersistence = errors.New("persistence failure")
)

type classifiedError struct {
	msg   string
	class error
}

func (e *classifiedError) Error() string { return e.msg }

func (e *classifiedError) Is(target error) bool { return target == e.class }

// InvalidInput builds a sentinel that matches ErrInvalidInput.
func InvalidInput(msg string) error {
	return &classifiedError{msg: msg, class: ErrInvalidInput}
}

// NotFound builds a sentinel that matches ErrNotFound.
func NotFound(msg string) error {
	return &classifiedError{msg: msg, class: ErrNotFound}
}

// Conflict builds a sentinel that matches ErrConflict.
func Conflict(msg string) error {
	return &classifiedError{msg: msg, class: ErrConflict}
}

// PersistenceError wraps an error returned by the record store. It is surfaced
// to the caller as-is and never retried.
type PersistenceError struct {
	Op  string
	Err error
}

// Persistence wraps err with the failing operation name. A nil err yields nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *PersistenceError
	if errors.As(err, &existing) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", ErrPersistence, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistence) match any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
