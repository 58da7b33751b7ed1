// Package enrichment augments a selected record with secondary-source
// metadata and related-book suggestions without blocking or corrupting the
// primary view.
package enrichment

import (
	"sync"

	"github.com/lepinkainen/alexandria/internal/book"
)

// SessionCache memoizes secondary-source lookups for the lifetime of one
// browsing session, so every identity is fetched at most once no matter how
// often its detail view is revisited.
//
// A stored nil metadata payload (or empty related list) is an explicit
// "checked, nothing found" marker, distinct from "not yet checked", so a
// failed lookup is not retried within the session. Entries are never
// invalidated; keys are append-only, and racing writers computing from the
// same inputs may overwrite each other harmlessly.
type SessionCache struct {
	mu      sync.RWMutex
	meta    map[string]*book.Metadata
	related map[string][]book.Record
}

// NewSessionCache creates an empty cache. One cache per session; inject it
// into the orchestrator rather than sharing ambient state.
func NewSessionCache() *SessionCache {
	return &SessionCache{
		meta:    make(map[string]*book.Metadata),
		related: make(map[string][]book.Record),
	}
}

// MetadataKey builds the composite cache key for a metadata lookup.
func MetadataKey(isbn, title string) string {
	return isbn + "|" + title
}

// Metadata returns the cached metadata for key. The second return reports
// whether the key has been checked at all; a (nil, true) result is the
// "nothing found" marker.
func (c *SessionCache) Metadata(key string) (*book.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.meta[key]
	return data, ok
}

// StoreMetadata records the outcome of a metadata lookup, including nil for
// "nothing found".
func (c *SessionCache) StoreMetadata(key string, data *book.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[key] = data
}

// Related returns the cached related-book list for a record identifier.
func (c *SessionCache) Related(id string) ([]book.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records, ok := c.related[id]
	return records, ok
}

// StoreRelated records the resolved related-book list for a record
// identifier. Caching the local fallback is deliberate: a later revisit must
// not re-run the network race.
func (c *SessionCache) StoreRelated(id string, records []book.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.related[id] = records
}
