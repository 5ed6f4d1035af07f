package loader

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// SheetCache keeps decoded sheet files with LRU eviction.
//
// Sheets re-enter the viewport often while the user pans, so decoded files
// are kept in memory and the least recently used ones are evicted once the
// memory estimate exceeds the limit. The cache holds raw records; every layer
// request still builds fresh features from them.
type SheetCache struct {
	maxMemory  int64 // Maximum memory in bytes, 0 for unlimited
	usedMemory int64
	sheets     map[int]*cacheEntry
	lru        *list.List // Most recent at front
	mu         sync.RWMutex

	hits, misses int
}

type cacheEntry struct {
	id           int
	file         *sheetFile
	memorySize   int64
	element      *list.Element
	lastAccessed time.Time
}

// NewSheetCache creates a cache with the given memory limit in bytes.
func NewSheetCache(maxMemoryBytes int64) *SheetCache {
	return &SheetCache{
		maxMemory: maxMemoryBytes,
		sheets:    make(map[int]*cacheEntry),
		lru:       list.New(),
	}
}

// get returns the cached file for id or decodes it with load.
func (c *SheetCache) get(id int, load func() (*sheetFile, error)) (*sheetFile, error) {
	c.mu.Lock()
	if entry, ok := c.sheets[id]; ok {
		entry.lastAccessed = time.Now()
		c.lru.MoveToFront(entry.element)
		c.hits++
		c.mu.Unlock()
		return entry.file, nil
	}
	c.misses++
	c.mu.Unlock()

	f, err := load()
	if err != nil {
		return nil, err
	}

	// A file too large for the cache is still returned uncached.
	_ = c.add(id, f)
	return f, nil
}

// add stores a decoded file, evicting older entries to make room.
func (c *SheetCache) add(id int, f *sheetFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.sheets[id]; ok {
		c.usedMemory += f.estimateSize() - entry.memorySize
		entry.file = f
		entry.memorySize = f.estimateSize()
		entry.lastAccessed = time.Now()
		c.lru.MoveToFront(entry.element)
		return nil
	}

	size := f.estimateSize()
	if c.maxMemory > 0 && size > c.maxMemory {
		return fmt.Errorf("sheet %d too large for cache (%d bytes > %d bytes max)", id, size, c.maxMemory)
	}
	if c.maxMemory > 0 {
		for c.usedMemory+size > c.maxMemory && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &cacheEntry{id: id, file: f, memorySize: size, lastAccessed: time.Now()}
	entry.element = c.lru.PushFront(entry)
	c.sheets[id] = entry
	c.usedMemory += size
	return nil
}

// evictLRU removes the least recently used sheet. Must be called with c.mu
// locked.
func (c *SheetCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.sheets, entry.id)
	c.usedMemory -= entry.memorySize
}

// Remove drops a sheet from the cache.
func (c *SheetCache) Remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.sheets[id]; ok {
		c.lru.Remove(entry.element)
		delete(c.sheets, id)
		c.usedMemory -= entry.memorySize
	}
}

// Clear empties the cache.
func (c *SheetCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sheets = make(map[int]*cacheEntry)
	c.lru.Init()
	c.usedMemory = 0
}

// Stats returns cache statistics.
func (c *SheetCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		SheetCount: len(c.sheets),
		UsedMemory: c.usedMemory,
		MaxMemory:  c.maxMemory,
		Hits:       c.hits,
		Misses:     c.misses,
	}
}

// CacheStats holds cache counters.
type CacheStats struct {
	SheetCount int   // Sheets currently cached
	UsedMemory int64 // Estimated memory usage in bytes
	MaxMemory  int64 // Memory limit in bytes
	Hits       int
	Misses     int
}
