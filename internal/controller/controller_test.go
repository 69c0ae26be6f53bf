package controller

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/fieldscope-mcp/internal/config"
	"github.com/usestring/fieldscope-mcp/internal/search"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// fakeSearcher returns n results for pass-through and matches for queries
// listed in hits, recording every call.
type fakeSearcher struct {
	mu    sync.Mutex
	n     int
	hits  map[string]int
	calls []call
}

type call struct {
	text  string
	field string
}

func (f *fakeSearcher) Query(text string, opts search.Options) []types.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{text: text, field: opts.Field})

	n := f.n
	if text != "" {
		n = f.hits[text]
	}
	out := make([]types.MatchResult, n)
	for i := range out {
		out[i] = types.MatchResult{ID: fmt.Sprintf("%d", i), Position: i}
	}
	return out
}

func (f *fakeSearcher) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newController(s Searcher, opts ...Option) *Controller {
	cfg := config.Defaults()
	cfg.Debounce = 50 * time.Millisecond
	return New(s, cfg, opts...)
}

func TestSetQuery_IdleAndActive(t *testing.T) {
	fs := &fakeSearcher{n: 500, hits: map[string]int{"jo": 3}}
	c := newController(fs)

	v := c.SetQuery("")
	assert.Equal(t, ModeIdle, v.State.Mode)
	assert.Equal(t, 500, v.Total)
	assert.Len(t, v.Results, 200)
	assert.True(t, v.HasMore)

	v = c.SetQuery("j")
	assert.Equal(t, ModeIdle, v.State.Mode, "one rune stays idle")
	assert.Equal(t, "", fs.lastCall().text)

	v = c.SetQuery(" jo ")
	assert.Equal(t, ModeActive, v.State.Mode)
	assert.Equal(t, "jo", fs.lastCall().text)
	assert.Equal(t, 3, v.Total)
	assert.Len(t, v.Results, 3)
	assert.False(t, v.HasMore)
}

func TestLoadMore(t *testing.T) {
	fs := &fakeSearcher{n: 450}
	c := newController(fs)
	c.SetQuery("")

	v := c.LoadMore()
	assert.Equal(t, 300, v.State.DisplayedCount)
	assert.Len(t, v.Results, 300)

	v = c.LoadMore()
	assert.Equal(t, 400, v.State.DisplayedCount)

	v = c.LoadMore()
	assert.Equal(t, 450, v.State.DisplayedCount, "capped at the total")
	assert.False(t, v.HasMore)

	v = c.LoadMore()
	assert.Equal(t, 450, v.State.DisplayedCount, "no-op once everything is shown")
}

func TestLoadMore_SmallDataset(t *testing.T) {
	c := newController(&fakeSearcher{n: 50})
	v := c.SetQuery("")
	assert.Equal(t, 200, v.State.DisplayedCount)
	v = c.LoadMore()
	assert.Equal(t, 200, v.State.DisplayedCount)
	assert.Len(t, v.Results, 50)
}

func TestQueryChangeResetsDisplayedCount(t *testing.T) {
	fs := &fakeSearcher{n: 1000, hits: map[string]int{"ab": 900, "abc": 900}}
	c := newController(fs)
	c.SetQuery("ab")
	c.LoadMore()
	require.Equal(t, 300, c.State().DisplayedCount)

	// Same effective query keeps the count.
	v := c.SetQuery("ab ")
	assert.Equal(t, 300, v.State.DisplayedCount)

	v = c.SetQuery("abc")
	assert.Equal(t, 200, v.State.DisplayedCount)
}

func TestOnInput_Debounces(t *testing.T) {
	fs := &fakeSearcher{n: 10, hits: map[string]int{"john": 1}}
	changes := make(chan View, 4)
	c := newController(fs, WithOnChange(func(v View) { changes <- v }))

	for _, s := range []string{"j", "jo", "joh", "john"} {
		c.OnInput(s)
	}
	assert.True(t, c.View().Pending)

	select {
	case v := <-changes:
		assert.Equal(t, "john", v.State.Query)
		assert.Equal(t, ModeActive, v.State.Mode)
		assert.Equal(t, 1, v.Total)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced input never applied")
	}

	// Only the final input reached the searcher.
	fs.mu.Lock()
	assert.Len(t, fs.calls, 1)
	fs.mu.Unlock()
	assert.False(t, c.View().Pending)
}

func TestSetQuery_CancelsPendingInput(t *testing.T) {
	fs := &fakeSearcher{n: 10, hits: map[string]int{"zz": 2}}
	c := newController(fs)

	c.OnInput("xx")
	c.SetQuery("zz")
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, "zz", c.State().Query)
}

func TestSetSearchKey(t *testing.T) {
	fs := &fakeSearcher{n: 1000, hits: map[string]int{"oslo": 2}}
	var persisted []string
	c := newController(fs, WithSearchKeyHook(func(field string) error {
		persisted = append(persisted, field)
		return nil
	}))
	c.SetQuery("")
	c.LoadMore()

	v, err := c.SetSearchKey("city")
	require.NoError(t, err)
	assert.Equal(t, "city", v.State.Field)
	assert.Equal(t, 200, v.State.DisplayedCount)
	assert.Equal(t, []string{"city"}, persisted)

	c.SetQuery("oslo")
	assert.Equal(t, call{text: "oslo", field: "city"}, fs.lastCall())
}

func TestSetSearchKey_HookFailure(t *testing.T) {
	c := newController(&fakeSearcher{n: 1}, WithSearchKeyHook(func(string) error {
		return errors.New("disk full")
	}))
	_, err := c.SetSearchKey("city")
	require.Error(t, err)
	assert.Equal(t, "", c.State().Field)
}

func TestRefreshKeepsDisplayedCount(t *testing.T) {
	fs := &fakeSearcher{n: 1000}
	c := newController(fs)
	c.SetQuery("")
	c.LoadMore()

	fs.mu.Lock()
	fs.n = 2000
	fs.mu.Unlock()

	v := c.Refresh()
	assert.Equal(t, 300, v.State.DisplayedCount)
	assert.Equal(t, 2000, v.Total)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "idle", ModeIdle.String())
	assert.Equal(t, "active", ModeActive.String())
}
