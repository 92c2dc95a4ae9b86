// Package pathcache memoizes filesystem path canonicalization, since
// every source and workspace lookup canonicalizes its input path and
// os.Stat-backed resolution is the single most repeated syscall in the
// resolution hot path.
package pathcache

import (
	"path/filepath"
	"sync"
)

// Stats tracks cache effectiveness.
type Stats struct {
	Hits   uint64
	Misses uint64
	Errors uint64
}

// Cache is a two-tier canonicalization memo: a primary map for paths
// that canonicalized successfully, and a fallback map for paths that
// failed to canonicalize (mapped to themselves, so repeated lookups of a
// nonexistent path don't repeatedly hit the filesystem).
type Cache struct {
	mu       sync.RWMutex
	resolved map[string]string
	fallback map[string]string
	stats    Stats
}

// New constructs an empty Cache.
func New() *Cache {
	return &Cache{
		resolved: make(map[string]string),
		fallback: make(map[string]string),
	}
}

// Canonicalize resolves path, using the cache first. A path that cannot
// be canonicalized (e.g. it does not exist) is returned unchanged, and
// the failure is counted in Stats.Errors rather than returned as an
// error — callers that need existence should stat the result themselves.
func (c *Cache) Canonicalize(path string) string {
	c.mu.RLock()
	if resolved, ok := c.resolved[path]; ok {
		c.mu.RUnlock()
		c.mu.Lock()
		c.stats.Hits++
		c.mu.Unlock()
		return resolved
	}
	if fb, ok := c.fallback[path]; ok {
		c.mu.RUnlock()
		c.mu.Lock()
		c.stats.Hits++
		c.mu.Unlock()
		return fb
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Misses++

	abs, err := filepath.Abs(path)
	if err != nil {
		c.stats.Errors++
		c.fallback[path] = path
		return path
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		c.stats.Errors++
		c.fallback[path] = path
		return path
	}

	c.resolved[path] = resolved
	return resolved
}

// Invalidate drops any cached entry for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resolved, path)
	delete(c.fallback, path)
}

// Clear empties both tiers and resets statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = make(map[string]string)
	c.fallback = make(map[string]string)
	c.stats = Stats{}
}

// Len returns the combined size of both tiers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resolved) + len(c.fallback)
}

// Stats returns a snapshot of the cache's hit/miss/error counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns hits / (hits + misses), or 0 if there have been no
// lookups yet.
func (c *Cache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total)
}
