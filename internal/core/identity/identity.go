// Package identity caches platform account identifiers per credential.
//
// Render, Railway and Fly.io require an owner, team or organization id
// before a project can be created. Resolving one costs an API round trip,
// so resolved values are memoized keyed by platform and a credential
// fingerprint. The fingerprint is a short hash, never the token itself,
// and is safe to log.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Fingerprint returns a short stable digest of a credential token. Equal
// tokens produce equal fingerprints; the token cannot be recovered from it.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// Key identifies a cache entry: one platform, one credential.
type Key struct {
	PlatformID  string
	Fingerprint string
}

// Cache memoizes resolved identity values. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]string
}

// NewCache returns an empty identity cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]string)}
}

// Get returns the cached identity for the key, if present.
func (c *Cache) Get(key Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key]
	return v, ok
}

// Put stores a resolved identity under the key, replacing any prior value.
func (c *Cache) Put(key Key, identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = identity
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
