package domain

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps validation failures on caller-supplied data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a state transition is not allowed,
	// e.g. validating a report that was already rejected.
	ErrConflict = errors.New("conflict")
)
