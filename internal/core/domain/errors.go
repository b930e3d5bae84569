package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown store driver, input format or query.
	ErrUnsupportedType = errors.New("unsupported type")

	// Extract Errors.

	// ErrMalformedElement indicates an eligible element is missing a required
	// attribute. It aborts the whole conversion.
	ErrMalformedElement = errors.New("malformed element")

	// ErrUnparseableInput indicates the input tree could not be tokenised.
	ErrUnparseableInput = errors.New("unparseable input")

	// Store Errors.

	// ErrStoreClosed indicates the document store has been closed.
	ErrStoreClosed = errors.New("store closed")
)
