package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/fieldscope-mcp/pkg/types"
)

func TestQueryCache(t *testing.T) {
	c, err := NewQueryCache(2)
	require.NoError(t, err)

	k1 := QueryKey{Generation: 1, Query: "jon", Limit: 10}
	k2 := QueryKey{Generation: 2, Query: "jon", Limit: 10}
	c.Put(k1, []types.MatchResult{{ID: "1"}})

	got, ok := c.Get(k1)
	require.True(t, ok)
	assert.Equal(t, "1", got[0].ID)

	_, ok = c.Get(k2)
	assert.False(t, ok, "other generation must miss")

	c.Put(k2, nil)
	c.Put(QueryKey{Generation: 3}, nil)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(k1)
	assert.False(t, ok, "oldest entry evicted")
}

func TestNewQueryCache_InvalidSize(t *testing.T) {
	_, err := NewQueryCache(0)
	assert.Error(t, err)
}
