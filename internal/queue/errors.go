package queue

import "errors"

var (
	// ErrNilOperation is returned when Enqueue is called with a nil operation.
	ErrNilOperation = errors.New("nil operation")
	// ErrInvalidOperation is returned when an operation fails structural validation.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrDuplicateOperation is returned when an operation id is already queued.
	ErrDuplicateOperation = errors.New("operation already queued")
	// ErrOperationNotFound is returned when an id does not match any queued operation.
	ErrOperationNotFound = errors.New("operation not found")
)
