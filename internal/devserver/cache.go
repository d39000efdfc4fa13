package devserver

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheSize bounds the number of loaded module entries.
const defaultCacheSize = 256

// ModuleCache caches loaded module entries keyed by absolute file path.
// It stands in for the process-wide module state that must be purged so
// freshly rebuilt artifacts are re-loaded without restarting the process.
// The dev server's purge step is the sole mutator besides loads.
type ModuleCache interface {
	// Get returns the cached entry for a path.
	Get(path string) (any, bool)

	// Put stores an entry for a path.
	Put(path string, v any)

	// Invalidate removes every entry whose key is the prefix path or
	// nested under it, and returns how many were removed. Entries outside
	// the prefix are untouched.
	Invalidate(prefix string) int

	// Len returns the number of cached entries.
	Len() int
}

// LRUModuleCache is a bounded ModuleCache backed by an LRU.
type LRUModuleCache struct {
	cache *lru.Cache[string, any]
}

// NewModuleCache creates a module cache with the default bound.
func NewModuleCache() *LRUModuleCache {
	c, err := lru.New[string, any](defaultCacheSize)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &LRUModuleCache{cache: c}
}

func (c *LRUModuleCache) Get(path string) (any, bool) {
	return c.cache.Get(normalizeKey(path))
}

func (c *LRUModuleCache) Put(path string, v any) {
	c.cache.Add(normalizeKey(path), v)
}

func (c *LRUModuleCache) Invalidate(prefix string) int {
	prefix = normalizeKey(prefix)
	removed := 0
	for _, key := range c.cache.Keys() {
		if keyUnderPrefix(key, prefix) {
			c.cache.Remove(key)
			removed++
		}
	}
	return removed
}

func (c *LRUModuleCache) Len() int {
	return c.cache.Len()
}

// normalizeKey canonicalizes a cache key path.
func normalizeKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// keyUnderPrefix reports whether key equals prefix or sits under it.
func keyUnderPrefix(key, prefix string) bool {
	if key == prefix {
		return true
	}
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(key, prefix)
}
