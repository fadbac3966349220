package pattern

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled matchers a Compiler keeps.
const DefaultCacheSize = 4096

type cacheKey struct {
	pattern string
	isRegex bool
}

type cacheEntry struct {
	predicate Predicate
	err       error
}

// Compiler memoizes Compile. Results, including failures, are identical to
// calling Compile directly. A Compiler is safe for concurrent use.
type Compiler struct {
	cache *lru.Cache[cacheKey, cacheEntry]
}

// NewCompiler creates a Compiler holding up to size entries
// (DefaultCacheSize when size <= 0).
func NewCompiler(size int) (*Compiler, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating pattern cache: %w", err)
	}
	return &Compiler{cache: cache}, nil
}

// Compile returns the cached predicate for the matcher, compiling it on
// first use.
func (c *Compiler) Compile(pattern string, isRegex bool) (Predicate, error) {
	key := cacheKey{pattern: pattern, isRegex: isRegex}
	if entry, ok := c.cache.Get(key); ok {
		return entry.predicate, entry.err
	}

	predicate, err := Compile(pattern, isRegex)
	c.cache.Add(key, cacheEntry{predicate: predicate, err: err})
	return predicate, err
}

// Len returns the number of cached matchers.
func (c *Compiler) Len() int {
	return c.cache.Len()
}

// Purge drops every cached matcher.
func (c *Compiler) Purge() {
	c.cache.Purge()
}
