package health

import "errors"

var (
	// ErrCheckTimeout indicates a check did not finish within its budget.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckPanicked indicates a checker panicked; the panic is contained.
	ErrCheckPanicked = errors.New("health: check panicked")

	// ErrValueMissing indicates the cache lost the sentinel between write and read.
	ErrValueMissing = errors.New("health: sentinel value missing")

	// ErrValueMismatch indicates the cache returned a different sentinel value.
	ErrValueMismatch = errors.New("health: sentinel value mismatch")
)
