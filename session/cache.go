package session

import "github.com/puzpuzpuz/xsync/v3"

// Cache is the session's general-purpose per-session cache map (§4.B):
// a concurrent key/value store for memoising idempotent results for the
// lifetime of one session. The descriptor reader and the version range
// resolver do not use it; the reader keeps its own descriptor.Cache.
// Keys are caller-defined strings (e.g. a
// coordinate plus a repository fingerprint); values are opaque to the
// cache itself.
type Cache struct {
	m *xsync.MapOf[string, any]
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{m: xsync.NewMapOf[string, any]()}
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key string) (any, bool) {
	return c.m.Load(key)
}

// Put stores value under key, overwriting any previous entry.
func (c *Cache) Put(key string, value any) {
	c.m.Store(key, value)
}

// GetOrCompute returns the cached value for key, computing and storing it
// via fn on a miss. fn may run more than once under concurrent first
// access to the same key; callers that need single-flight semantics across
// the whole session compose this with their own dedupe.
func (c *Cache) GetOrCompute(key string, fn func() (any, error)) (any, error) {
	if v, ok := c.m.Load(key); ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return nil, err
	}
	c.m.Store(key, v)
	return v, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int { return c.m.Size() }
