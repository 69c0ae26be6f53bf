// Package cache provides caching utilities for the MCP server.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// QueryKey identifies a query result. Generation ties it to one index
// snapshot, so a rebuild invalidates every older entry implicitly.
type QueryKey struct {
	Generation uint64
	Field      string
	Limit      int
	Query      string
}

// QueryCache provides thread-safe LRU caching for search results.
type QueryCache struct {
	cache *lru.Cache[QueryKey, []types.MatchResult]
}

// NewQueryCache creates a new LRU cache with the specified maximum number of items.
func NewQueryCache(maxItems int) (*QueryCache, error) {
	c, err := lru.New[QueryKey, []types.MatchResult](maxItems)
	if err != nil {
		return nil, err
	}
	return &QueryCache{cache: c}, nil
}

// Get retrieves cached results. Callers must not modify the returned slice.
func (c *QueryCache) Get(key QueryKey) ([]types.MatchResult, bool) {
	return c.cache.Get(key)
}

// Put adds or updates cached results.
func (c *QueryCache) Put(key QueryKey, results []types.MatchResult) {
	c.cache.Add(key, results)
}

// Len returns the current number of items in the cache.
func (c *QueryCache) Len() int {
	return c.cache.Len()
}
