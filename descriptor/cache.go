package descriptor

import (
	"strings"
	"sync"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/golang/groupcache/lru"
)

// cacheKey is (coordinate, repository-fingerprint), the key the reader's
// cache is keyed by (§4.E "session-scoped descriptor cache keyed by
// (coordinate, repository-fingerprint)").
type cacheKey struct {
	coord       coordinate.Coordinate
	fingerprint string
}

// Fingerprint derives a stable repository-set fingerprint from a list of
// repository IDs, order-independent so the same effective repo set always
// hashes to the same key regardless of how it was aggregated.
func Fingerprint(repoIDs []string) string {
	sorted := append([]string(nil), repoIDs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return strings.Join(sorted, "|")
}

// entry is what the cache stores per key: either a resolved Result, or a
// negative-cache marker (Err == ErrNoDescriptor) recorded once per session
// so repeated requests for an unresolvable coordinate don't refetch.
type entry struct {
	result Result
	err    error
}

// Cache is the reader's session-scoped descriptor cache: an LRU of
// results plus negative-cache entries, generalising the teacher's
// hand-rolled `util/resolve/pypi/internal/lru` cache (see
// internal/ilru) to the groupcache implementation SPEC_FULL §2 wires in
// for this concern specifically.
type Cache struct {
	mu sync.Mutex
	lru *lru.Cache
}

// NewCache creates a Cache holding up to maxEntries descriptor results
// (positive and negative combined).
func NewCache(maxEntries int) *Cache {
	return &Cache{lru: lru.New(maxEntries)}
}

func (c *Cache) get(key cacheKey) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(key)
	if !ok {
		return entry{}, false
	}
	return v.(entry), true
}

func (c *Cache) put(key cacheKey, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, e)
}
