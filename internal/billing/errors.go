package billing

import (
	"errors"
	"fmt"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/calculator"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

var (
	// ErrInvalidInput is returned for malformed arguments.
	ErrInvalidInput = calculator.ErrInvalidInput

	// ErrInvalidMonthFormat is returned when a month is not YYYY-MM.
	// It wraps ErrInvalidInput.
	ErrInvalidMonthFormat = calculator.ErrInvalidMonthFormat

	// ErrNotFound is returned when a bill, class or profile does not exist.
	ErrNotFound = storage.ErrNotFound

	// ErrNoParent is returned when no responsible parent can be found for a student.
	ErrNoParent = fmt.Errorf("responsible parent %w", storage.ErrNotFound)
)

// PersistenceError wraps a failure reported by the storage layer.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// persistErr wraps err as a PersistenceError. Not-found errors are
// returned as they are so callers can match them directly.
func persistErr(op string, err error) error {
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
