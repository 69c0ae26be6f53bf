// Package controller turns raw keystrokes into search queries: it debounces
// input, switches between idle and active mode and pages through results.
package controller

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/bep/debounce"

	"github.com/usestring/fieldscope-mcp/internal/config"
	"github.com/usestring/fieldscope-mcp/internal/search"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// Mode is the controller's query state.
type Mode int

const (
	// ModeIdle passes the whole dataset through (query shorter than two runes).
	ModeIdle Mode = iota
	// ModeActive runs fuzzy search.
	ModeActive
)

func (m Mode) String() string {
	if m == ModeActive {
		return "active"
	}
	return "idle"
}

// minActiveRunes is the query length at which fuzzy search starts.
const minActiveRunes = 2

// State is the controller's externally visible state.
type State struct {
	Query          string
	Field          string
	DisplayedCount int
	Mode           Mode
}

// View is the displayed slice of the current results.
type View struct {
	State   State
	Results []types.MatchResult
	Total   int
	HasMore bool
	// Pending is set while debounced input has not been applied yet.
	Pending bool
}

// Searcher runs queries. *search.SearchEngine satisfies it.
type Searcher interface {
	Query(text string, opts search.Options) []types.MatchResult
}

// Controller is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	searcher Searcher
	state    State
	results  []types.MatchResult
	// effective is the query last sent to the searcher.
	effective string

	pageSize int
	pageStep int
	maxQuery int

	debounced  func(f func())
	pending    string
	hasPending bool

	onSearchKey func(field string) error
	onChange    func(View)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSearchKeyHook registers fn to persist a new search key and rebuild
// the index before the controller re-runs the query.
func WithSearchKeyHook(fn func(field string) error) Option {
	return func(c *Controller) { c.onSearchKey = fn }
}

// WithOnChange registers fn to be called after each state change applied
// from debounced input.
func WithOnChange(fn func(View)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// New creates a controller in idle mode.
func New(s Searcher, cfg *config.Config, opts ...Option) *Controller {
	if cfg == nil {
		cfg = config.Defaults()
	}
	c := &Controller{
		searcher:  s,
		pageSize:  cfg.PageSize,
		pageStep:  cfg.PageStep,
		maxQuery:  cfg.MaxQueryLength,
		debounced: debounce.New(cfg.Debounce),
	}
	if c.pageSize <= 0 {
		c.pageSize = config.DefaultPageSize
	}
	if c.pageStep <= 0 {
		c.pageStep = config.DefaultPageStep
	}
	c.state.DisplayedCount = c.pageSize
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnInput records raw input and applies it once input has been quiet for
// the debounce interval. Rapid calls coalesce to the last value.
func (c *Controller) OnInput(raw string) {
	c.mu.Lock()
	c.pending = raw
	c.hasPending = true
	c.mu.Unlock()

	c.debounced(c.flush)
}

// flush applies pending input, if any.
func (c *Controller) flush() {
	c.mu.Lock()
	if !c.hasPending {
		c.mu.Unlock()
		return
	}
	raw := c.pending
	c.hasPending = false
	view := c.setQueryLocked(raw)
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(view)
	}
}

// SetQuery applies raw immediately, dropping any pending debounced input.
func (c *Controller) SetQuery(raw string) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasPending = false
	return c.setQueryLocked(raw)
}

func (c *Controller) setQueryLocked(raw string) View {
	c.state.Query = raw
	c.run(false)
	return c.viewLocked()
}

// LoadMore reveals the next page of results. It is a no-op when every
// result is already displayed.
func (c *Controller) LoadMore() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.results)
	if c.state.DisplayedCount < total {
		c.state.DisplayedCount = min(c.state.DisplayedCount+c.pageStep, total)
	}
	return c.viewLocked()
}

// SetSearchKey scopes matching to field ("" for all fields). The hook, if
// any, runs first; on its failure the state is left unchanged.
func (c *Controller) SetSearchKey(field string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onSearchKey != nil {
		if err := c.onSearchKey(field); err != nil {
			return c.viewLocked(), err
		}
	}
	c.state.Field = field
	c.run(true)
	return c.viewLocked(), nil
}

// Refresh re-runs the current query, typically after the dataset changed.
// The displayed count is kept.
func (c *Controller) Refresh() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.state.DisplayedCount
	c.run(false)
	c.state.DisplayedCount = count
	return c.viewLocked()
}

// View returns the current view without running a query.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// run evaluates the current state. The displayed count resets whenever the
// effective query changes or reset is set.
func (c *Controller) run(reset bool) {
	q := search.NormalizeQuery(c.state.Query, c.maxQuery)
	effective := ""
	c.state.Mode = ModeIdle
	if utf8.RuneCountInString(q) >= minActiveRunes {
		effective = q
		c.state.Mode = ModeActive
	}

	if reset || effective != c.effective {
		c.state.DisplayedCount = c.pageSize
	}
	c.effective = effective
	c.results = c.searcher.Query(effective, search.Options{Field: c.state.Field})

	slog.Debug("query applied",
		slog.String("mode", c.state.Mode.String()),
		slog.String("query", effective),
		slog.String("field", c.state.Field),
		slog.Int("results", len(c.results)),
	)
}

func (c *Controller) viewLocked() View {
	total := len(c.results)
	n := min(c.state.DisplayedCount, total)
	return View{
		State:   c.state,
		Results: c.results[:n:n],
		Total:   total,
		HasMore: n < total,
		Pending: c.hasPending,
	}
}
