package reconcile

import (
	"strings"
	"sync"

	"rostersync/internal/catalog"
)

// Signature returns a stable string form of a tag set, used to detect
// redundant applications.
func Signature(set catalog.TagSet) string {
	return strings.Join(set.Sorted(), ",")
}

// AppliedCache remembers the signature of the last successfully applied
// desired state per entity key. It only ever skips redundant work; the
// directory remains the source of truth for what is actually assigned.
type AppliedCache struct {
	mu      sync.Mutex
	applied map[string]string
}

// NewAppliedCache returns an empty cache.
func NewAppliedCache() *AppliedCache {
	return &AppliedCache{applied: make(map[string]string)}
}

// Get returns the cached signature for an entity key.
func (c *AppliedCache) Get(entityKey string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig, ok := c.applied[entityKey]
	return sig, ok
}

// Set records a signature after a full or partial successful application.
func (c *AppliedCache) Set(entityKey, signature string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied[entityKey] = signature
}

// Clear drops an entity's entry after a total failure so the next event
// re-observes and re-applies.
func (c *AppliedCache) Clear(entityKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.applied, entityKey)
}

// Len reports the number of cached entries.
func (c *AppliedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.applied)
}
