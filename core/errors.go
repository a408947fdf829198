package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		msgs := make([]string, 0, len(err.Fields))
		for _, fe := range err.Fields {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Error))
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func (err ValidationError) Unwrap() error { return err.Err }

// IsValidationError reports whether err (or its cause) is a *ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// shutdownError asks the server to stop gracefully once the current request is answered.
type shutdownError struct {
	reason string
}

func NewShutdownError(reason string) error {
	return &shutdownError{reason: reason}
}

func (e *shutdownError) Error() string { return "shutdown requested: " + e.reason }

func IsShutdown(err error) bool {
	var sErr *shutdownError
	return errors.As(err, &sErr)
}
