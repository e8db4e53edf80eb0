package storage

import "errors"

// Storage errors shared by all store implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. The swipe ledger is append-only,
	// so a duplicate event id is a replayed fact, not an update.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTerminalStatus is returned when attempting to transition an
	// A/B test out of a completed or cancelled state.
	ErrTerminalStatus = errors.New("ab test status is terminal")
)
