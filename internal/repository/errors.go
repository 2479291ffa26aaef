package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write lost against a concurrent writer
	ErrConflict = errors.New("conflict: entity was modified concurrently")

	// ErrRetryable is returned when a transaction aborted for a transient
	// reason (lock contention, timeout) and the caller may retry it.
	ErrRetryable = errors.New("transaction aborted, retry")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
