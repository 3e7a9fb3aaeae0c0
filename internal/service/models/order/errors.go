package order

import "errors"

var (
	// ErrNotFound is returned when no order matches the requested id or number.
	ErrNotFound = errors.New("order not found")

	// ErrValidation is returned for malformed creation or transition input.
	// Nothing is persisted when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when the state machine disallows the
	// requested status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateOrderNumber is returned when the store rejects an order
	// number that already exists. The caller may retry with a fresh number.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)
