package suggest

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

// HotCache keeps the results of recent lookups, evicting the least recently
// used entry once maxEntries is reached. A zero or negative maxEntries
// disables caching. Safe for concurrent use.
type HotCache[V any] struct {
	entries     map[string]V
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	misses      int64
	maxEntries  int
	mu          sync.Mutex
}

func NewHotCache[V any](maxEntries int) *HotCache[V] {
	return &HotCache[V]{
		entries:    make(map[string]V, max(maxEntries, 0)),
		accessTime: make(map[string]int64, max(maxEntries, 0)),
		maxEntries: maxEntries,
	}
}

// Get returns the cached value for key.
func (hc *HotCache[V]) Get(key string) (V, bool) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	v, ok := hc.entries[key]
	if !ok {
		hc.misses++
		return v, false
	}
	hc.hits++
	hc.markAccessed(key)
	return v, true
}

// Put stores v under key.
func (hc *HotCache[V]) Put(key string, v V) {
	if hc.maxEntries <= 0 {
		return
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if _, exists := hc.entries[key]; !exists && len(hc.entries) >= hc.maxEntries {
		hc.evictLRU()
	}
	hc.entries[key] = v
	hc.markAccessed(key)
}

// Len returns the number of cached entries.
func (hc *HotCache[V]) Len() int {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return len(hc.entries)
}

func (hc *HotCache[V]) Stats() map[string]int {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	return map[string]int{
		"hotCacheEntries": len(hc.entries),
		"maxHotEntries":   hc.maxEntries,
		"hotCacheHits":    int(hc.hits),
		"hotCacheMisses":  int(hc.misses),
	}
}

func (hc *HotCache[V]) markAccessed(key string) {
	hc.accessCount++
	hc.accessTime[key] = hc.accessCount
}

func (hc *HotCache[V]) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, accessTime := range hc.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestKey = key
		}
	}

	if oldestTime != math.MaxInt64 {
		delete(hc.entries, oldestKey)
		delete(hc.accessTime, oldestKey)
		log.Debugf("Evicted %q from hot cache", oldestKey)
	}
}
