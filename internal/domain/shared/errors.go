package shared

import (
	"errors"
	"fmt"
)

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// ValidationError reports an invalid field value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidationErrors collects every problem found in one pass so a config
// author sees all of them at once.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msg := "validation failed:"
	for _, e := range v {
		msg += "\n  " + e.Error()
	}
	return msg
}

// Err returns nil when no validation errors were collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsValidationError reports whether err is or wraps a validation failure.
func IsValidationError(err error) bool {
	var one *ValidationError
	var many ValidationErrors
	return errors.As(err, &one) || errors.As(err, &many)
}

// ActuationError wraps a failed vessel command. The controller logs these
// and carries on; the next tick re-reads telemetry.
type ActuationError struct {
	*DomainError
	Command string
	Err     error
}

func NewActuationError(command string, err error) *ActuationError {
	return &ActuationError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s failed: %v", command, err)},
		Command:     command,
		Err:         err,
	}
}

func (e *ActuationError) Unwrap() error {
	return e.Err
}
