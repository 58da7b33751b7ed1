package book

import "errors"

var (
	// ErrNotFound is returned when a lookup by identifier or ISBN yields
	// nothing. Always recoverable.
	ErrNotFound = errors.New("book not found")

	// ErrIdentityMismatch is returned when a record replacement carries a
	// different identifier than the record it would replace.
	ErrIdentityMismatch = errors.New("record identity mismatch")

	// ErrUnresolvable is returned when a pure placeholder cannot be resolved
	// and no fallback data exists at all. This is the only enrichment failure
	// surfaced to callers.
	ErrUnresolvable = errors.New("record could not be resolved")
)
