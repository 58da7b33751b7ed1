// Package catalog provides access to the book corpus: an in-memory store
// loaded from JSON or YAML exports, and a SQLite-backed store for larger
// collections.
package catalog

import (
	"context"

	"github.com/lepinkainen/alexandria/internal/book"
)

// Store is the record store the pipeline reads from. Records are read-only
// from the pipeline's perspective; the store owns their lifecycle.
type Store interface {
	// GetRecord fetches a single record by identifier.
	// Returns book.ErrNotFound when the identifier is unknown.
	GetRecord(ctx context.Context, id string) (book.Record, error)

	// All returns the full corpus in stable corpus order.
	All(ctx context.Context) ([]book.Record, error)

	// Close releases any resources held by the store.
	Close() error
}
