package simulation

import (
	"container/list"
	"encoding/binary"
	"sync"
	"time"

	"lukechampine.com/blake3"

	"mevsearcher/bundle"
)

const (
	defaultCacheTTL     = 300 * time.Second
	defaultCacheMaxSize = 1000
)

// resultCache is a small mutex-guarded map+list LRU, not a third-party LRU
// library, because it only ever caches *successful* results and needs a
// TTL check folded into the same lock as the eviction — a bespoke
// combination not worth pulling in a dependency for.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key       string
	result    *DetailedResult
	expiresAt time.Time
}

func newResultCache(ttl time.Duration, maxSize int) *resultCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = defaultCacheMaxSize
	}
	return &resultCache{
		ttl:     ttl,
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func cacheKey(b *bundle.Bundle, mode Mode, block uint64) string {
	hasher := blake3.New(32, nil)
	hasher.Write(b.ID.Bytes())
	hasher.Write([]byte(mode))
	var blockBytes [8]byte
	binary.BigEndian.PutUint64(blockBytes[:], block)
	hasher.Write(blockBytes[:])
	return string(hasher.Sum(nil))
}

func (c *resultCache) get(key string) (*DetailedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.result, true
}

// put caches result, evicting the least recently used entry if at
// capacity. Callers must only cache successful simulation results.
func (c *resultCache) put(key string, result *DetailedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).result = result
		elem.Value.(*cacheEntry).expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	elem := c.order.PushFront(&cacheEntry{key: key, result: result, expiresAt: time.Now().Add(c.ttl)})
	c.entries[key] = elem
}
