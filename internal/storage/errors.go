package storage

import "errors"

// Errors shared by every store backend. Candle, trade, and run stores
// are append-only; records are never updated in place.
var (
	// ErrNotFound is returned when a requested run or candle range
	// yields no record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert collides with an
	// existing candle stamp or run id.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
