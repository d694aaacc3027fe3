// # internal/engine/parser/cache.go
package parser

import (
	"container/list"
	"sync"
)

// FileCache keeps recently parsed files keyed by absolute path. An entry is
// only returned while the content hash still matches, so an edited file is
// always re-parsed. The least recently used entry is dropped at capacity.
//
// Cached *File values are shared between analyses and must be treated as
// read-only.
type FileCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	path string
	hash uint64
	file *File
}

// NewFileCache returns a cache holding up to capacity files. A capacity
// below 1 yields a cache that stores nothing.
func NewFileCache(capacity int) *FileCache {
	if capacity < 0 {
		capacity = 0
	}
	return &FileCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Lookup returns the file parsed from path when its content hash was hash.
// A stale entry is dropped.
func (c *FileCache) Lookup(path string, hash uint64) (*File, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[path]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if entry.hash != hash {
		c.order.Remove(el)
		delete(c.entries, path)
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return entry.file, true
}

// Store records file as the parse result of path.
func (c *FileCache) Store(path string, file *File) {
	if c == nil || c.capacity == 0 || file == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[path]; ok {
		entry := el.Value.(*cacheEntry)
		entry.hash = file.Hash
		entry.file = file
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.capacity {
		back := c.order.Back()
		c.order.Remove(back)
		delete(c.entries, back.Value.(*cacheEntry).path)
	}
	c.entries[path] = c.order.PushFront(&cacheEntry{path: path, hash: file.Hash, file: file})
}

// Forget drops path from the cache.
func (c *FileCache) Forget(path string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[path]; ok {
		c.order.Remove(el)
		delete(c.entries, path)
	}
}

func (c *FileCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns lookup hit and miss counts since creation.
func (c *FileCache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
