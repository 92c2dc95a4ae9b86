package resolution

import (
	"container/list"
	"sync"
	"time"
)

// CacheKey identifies one cached resolution.
type CacheKey struct {
	Key         string
	ContextHash uint64
}

// CachedValue pairs a resolved variable with when it was cached.
type CachedValue struct {
	Value    *ResolvedVariable
	CachedAt time.Time
}

type lruEntry struct {
	key   CacheKey
	value CachedValue
}

// Cache is the two-tier resolution cache: a bounded hot tier (LRU,
// capacity = hot_cache_size, minimum 1) and an unbounded TTL tier whose
// entries expire after ttl. Len reports the sum of both tiers, since an
// entry can legitimately exist in one without the other (a fresh
// resolve promotes into the hot tier but the TTL tier is the backstop
// once it's evicted).
type Cache struct {
	hotCap int
	ttl    time.Duration

	mu      sync.Mutex
	ll      *list.List
	hotMap  map[CacheKey]*list.Element
	ttlMap  sync.Map // CacheKey -> CachedValue
}

// NewCache constructs a Cache. hotCacheSize below 1 is treated as 1;
// ttl of 0 means every Get misses immediately.
func NewCache(hotCacheSize int, ttl time.Duration) *Cache {
	if hotCacheSize < 1 {
		hotCacheSize = 1
	}
	return &Cache{
		hotCap: hotCacheSize,
		ttl:    ttl,
		ll:     list.New(),
		hotMap: make(map[CacheKey]*list.Element),
	}
}

// Get checks the hot tier first, then the TTL tier. An entry older than
// ttl misses in either tier and is dropped from that tier lazily on read.
func (c *Cache) Get(key CacheKey) (CachedValue, bool) {
	c.mu.Lock()
	if el, ok := c.hotMap[key]; ok {
		v := el.Value.(*lruEntry).value
		if c.ttl <= 0 || time.Since(v.CachedAt) > c.ttl {
			c.ll.Remove(el)
			delete(c.hotMap, key)
		} else {
			c.ll.MoveToFront(el)
			c.mu.Unlock()
			return v, true
		}
	}
	c.mu.Unlock()

	if raw, ok := c.ttlMap.Load(key); ok {
		cv := raw.(CachedValue)
		if c.ttl <= 0 || time.Since(cv.CachedAt) > c.ttl {
			c.ttlMap.Delete(key)
			return CachedValue{}, false
		}
		return cv, true
	}
	return CachedValue{}, false
}

// Insert places value in both tiers.
func (c *Cache) Insert(key CacheKey, value CachedValue) {
	c.mu.Lock()
	if el, ok := c.hotMap[key]; ok {
		el.Value.(*lruEntry).value = value
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(&lruEntry{key: key, value: value})
		c.hotMap[key] = el
		if c.ll.Len() > c.hotCap {
			oldest := c.ll.Back()
			if oldest != nil {
				c.ll.Remove(oldest)
				delete(c.hotMap, oldest.Value.(*lruEntry).key)
			}
		}
	}
	c.mu.Unlock()

	c.ttlMap.Store(key, value)
}

// Invalidate removes key from both tiers.
func (c *Cache) Invalidate(key CacheKey) {
	c.mu.Lock()
	if el, ok := c.hotMap[key]; ok {
		c.ll.Remove(el)
		delete(c.hotMap, key)
	}
	c.mu.Unlock()
	c.ttlMap.Delete(key)
}

// Clear empties both tiers.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.ll = list.New()
	c.hotMap = make(map[CacheKey]*list.Element)
	c.mu.Unlock()
	c.ttlMap.Range(func(k, _ any) bool {
		c.ttlMap.Delete(k)
		return true
	})
}

// Len is the combined size of both tiers (not deduplicated).
func (c *Cache) Len() int {
	c.mu.Lock()
	hot := len(c.hotMap)
	c.mu.Unlock()

	ttlLen := 0
	c.ttlMap.Range(func(_, _ any) bool {
		ttlLen++
		return true
	})
	return hot + ttlLen
}

// IsEmpty reports whether Len() == 0.
func (c *Cache) IsEmpty() bool { return c.Len() == 0 }

// CleanupExpired purges TTL-tier entries older than ttl.
func (c *Cache) CleanupExpired() {
	if c.ttl <= 0 {
		return
	}
	now := time.Now()
	c.ttlMap.Range(func(k, v any) bool {
		if now.Sub(v.(CachedValue).CachedAt) > c.ttl {
			c.ttlMap.Delete(k)
		}
		return true
	})
}
