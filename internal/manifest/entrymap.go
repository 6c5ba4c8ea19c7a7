package manifest

import (
	"sync"
)

// entryMap collects cache entries from the extraction workers. The lock is
// required because several workers insert while the builder may read.
type entryMap struct {
	sync.RWMutex
	entries map[string]CacheEntry
}

func newEntryMap() *entryMap {
	return &entryMap{entries: make(map[string]CacheEntry)}
}

func (em *entryMap) Insert(name string, e CacheEntry) {
	em.Lock()
	defer em.Unlock()
	em.entries[name] = e
}

func (em *entryMap) Get(name string) (CacheEntry, bool) {
	em.RLock()
	defer em.RUnlock()
	if e, ok := em.entries[name]; ok {
		return e, true
	}
	return CacheEntry{}, false
}
