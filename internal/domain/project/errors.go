package project

import "errors"

var (
	// ErrNotFound indicates the project doesn't exist.
	ErrNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid input for project operations.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrInvalidTransition indicates an illegal status change.
	ErrInvalidTransition = errors.New("invalid project status transition")
	// ErrReservationConflict indicates an overlapping reservation blocked
	// the change. The wrapped availability.Conflict names the holder.
	ErrReservationConflict = errors.New("overlapping equipment reservation")
)
