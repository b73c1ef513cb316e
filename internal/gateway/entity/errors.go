package entity

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Stores and services return these for expected
// failures; raw driver errors are wrapped in BackendError before crossing a
// package boundary.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid lifecycle state")
)

// ValidationError reports missing or malformed required input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// BackendError wraps an unexpected storage fault. Callers may retry these;
// domain errors above are never retry-safe.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func Backendf(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}

// IsDomain reports whether err belongs to the expected-failure taxonomy, as
// opposed to a backend fault.
func IsDomain(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) || errors.As(err, &ve)
}
