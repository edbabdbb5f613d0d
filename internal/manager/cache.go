package manager

import (
	"sync"
	"time"

	"github.com/dev-jelly/jellos-sub002/internal/secure"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// DefaultCacheTimeout is how long a resolved value may be served from
// cache before the next lookup goes back to the providers.
const DefaultCacheTimeout = 5 * time.Minute

type cacheEntry struct {
	value       *secure.Value
	source      provider.Type
	retrievedAt time.Time
}

// valueCache holds resolved secrets in memguard enclaves, keyed by
// namespace/key. Expiry is lazy: entries are checked on read, and a stale
// entry is destroyed and reported as a miss, never returned.
type valueCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	disabled bool
	entries  map[string]*cacheEntry

	// now is swapped in expiry tests.
	now func() time.Time
}

func newValueCache(ttl time.Duration, disabled bool) *valueCache {
	return &valueCache{
		ttl:      ttl,
		disabled: disabled,
		entries:  make(map[string]*cacheEntry),
		now:      time.Now,
	}
}

func cacheKey(namespace, key string) string {
	return namespace + "/" + key
}

func (c *valueCache) enabled() bool {
	return c != nil && !c.disabled
}

func (c *valueCache) get(namespace, key string) (string, provider.Type, bool) {
	if !c.enabled() {
		return "", "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ck := cacheKey(namespace, key)
	entry, ok := c.entries[ck]
	if !ok {
		return "", "", false
	}
	if c.now().Sub(entry.retrievedAt) >= c.ttl {
		entry.value.Destroy()
		delete(c.entries, ck)
		return "", "", false
	}
	plain, err := entry.value.Reveal()
	if err != nil {
		delete(c.entries, ck)
		return "", "", false
	}
	return plain, entry.source, true
}

func (c *valueCache) put(namespace, key, value string, source provider.Type) {
	if !c.enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ck := cacheKey(namespace, key)
	if old, ok := c.entries[ck]; ok {
		old.value.Destroy()
	}
	c.entries[ck] = &cacheEntry{
		value:       secure.NewValue(value),
		source:      source,
		retrievedAt: c.now(),
	}
}

func (c *valueCache) invalidate(namespace, key string) {
	if !c.enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ck := cacheKey(namespace, key)
	if entry, ok := c.entries[ck]; ok {
		entry.value.Destroy()
		delete(c.entries, ck)
	}
}

func (c *valueCache) clear() {
	if !c.enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for ck, entry := range c.entries {
		entry.value.Destroy()
		delete(c.entries, ck)
	}
}

func (c *valueCache) size() int {
	if !c.enabled() {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
