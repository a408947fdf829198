package seating

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrClassroomNotFound = errors.New("classroom not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrInvalidSeat       = errors.New("invalid seat")
	ErrSeatConflict      = errors.New("seat is held by another student")
	ErrOverlappingSwap   = errors.New("swap batch references a seat more than once")
	ErrClassroomExists   = errors.New("a classroom with this id already exists")
	ErrStudentExists     = errors.New("a student with this id already exists")
)

// ConfigError reports a persisted layout that could not be parsed.
type ConfigError struct {
	ClassID string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("malformed layout for classroom %q: %v", e.ClassID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// PersistenceError reports a storage failure. It is never retried.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func invalidSeat(s Seat) error {
	return errors.Wrapf(ErrInvalidSeat, "%s", s)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrClassroomNotFound) || errors.Is(err, ErrStudentNotFound)
}

func IsPersistenceError(err error) bool {
	var pErr *PersistenceError
	return errors.As(err, &pErr)
}
