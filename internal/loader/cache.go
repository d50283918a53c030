package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

// Cache memoizes load-and-coerce results keyed by file content. Identical
// input bytes always yield the same dataset, so entries never go stale.
// Cached datasets are shared and must not be mutated by callers.
type Cache struct {
	capacity int

	mu      sync.Mutex
	entries map[string]*dataset.Dataset
	order   []string

	group singleflight.Group
}

// NewCache returns a cache holding at most capacity datasets; 0 means unbounded.
func NewCache(capacity int) *Cache {
	return &Cache{capacity: capacity, entries: make(map[string]*dataset.Dataset)}
}

// Key derives the cache key from the file extension, a caller salt (anything
// else that changes the output, such as inference thresholds) and the content.
func Key(filename string, content []byte, salt string) string {
	sum := sha256.Sum256(content)
	return strings.ToLower(filepath.Ext(filename)) + "|" + salt + "|" + hex.EncodeToString(sum[:])
}

// Get returns the cached dataset for key, running fn once on a miss even when
// several callers ask concurrently. Errors are not cached.
func (c *Cache) Get(key string, fn func() (*dataset.Dataset, error)) (*dataset.Dataset, bool, error) {
	if c == nil {
		ds, err := fn()
		return ds, false, err
	}
	c.mu.Lock()
	if ds, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return ds, true, nil
	}
	c.mu.Unlock()

	v, err, shared := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		cached, ok := c.entries[key]
		c.mu.Unlock()
		if ok {
			return cached, nil
		}
		ds, err := fn()
		if err != nil {
			return nil, err
		}
		c.put(key, ds)
		return ds, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*dataset.Dataset), shared, nil
}

func (c *Cache) put(key string, ds *dataset.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = ds
	c.order = append(c.order, key)
	if c.capacity > 0 && len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of cached datasets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
