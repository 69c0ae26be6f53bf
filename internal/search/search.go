// Package search provides fuzzy search over the committed dataset index.
package search

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/usestring/fieldscope-mcp/internal/cache"
	"github.com/usestring/fieldscope-mcp/internal/config"
	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/internal/fuzzy"
	"github.com/usestring/fieldscope-mcp/internal/indexer"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// Result modes reported in SearchResponse.Mode.
const (
	ModePassThrough = "pass-through"
	ModeFuzzy       = "fuzzy"
)

// scoreFloor replaces a perfect field score before it enters the record
// product, so one exact field does not erase the others.
const scoreFloor = 2.220446049250313e-16

// Options scopes a query.
type Options struct {
	// Field restricts matching and highlights to one flattened key.
	Field string
	// Limit caps fuzzy results; <= 0 uses the configured default.
	Limit int
}

// SearchEngine answers queries against the indexer's committed snapshot.
type SearchEngine struct {
	indexer *indexer.Indexer
	cache   *cache.QueryCache
	config  *config.Config
}

// New creates a new SearchEngine. c may be nil to disable result caching.
func New(idx *indexer.Indexer, c *cache.QueryCache, cfg *config.Config) *SearchEngine {
	if cfg == nil {
		cfg = config.Defaults()
	}
	return &SearchEngine{indexer: idx, cache: c, config: cfg}
}

// NormalizeQuery trims text and truncates it to maxLen runes.
func NormalizeQuery(text string, maxLen int) string {
	q := strings.TrimSpace(text)
	if maxLen > 0 && utf8.RuneCountInString(q) > maxLen {
		q = string([]rune(q)[:maxLen])
	}
	return q
}

// Query runs text against the current index. An empty query passes every
// record through in dataset order with score 0 and no limit. Otherwise the
// best fuzzy matches come first, capped at the limit. A missing or empty
// index yields an empty result.
func (s *SearchEngine) Query(text string, opts Options) []types.MatchResult {
	ix := s.indexer.Current()
	if ix.Len() == 0 {
		return []types.MatchResult{}
	}

	q := NormalizeQuery(text, s.config.MaxQueryLength)
	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.SearchLimit
	}
	field := opts.Field
	if q == "" {
		// Pass-through ignores the limit and the field.
		limit = 0
		field = ""
	}

	key := cache.QueryKey{Generation: ix.Generation(), Field: field, Limit: limit, Query: q}
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached
		}
	}

	var results []types.MatchResult
	if q == "" {
		results = passThrough(ix)
	} else {
		start := time.Now()
		results = s.fuzzySearch(ix, q, opts.Field, limit)
		slog.Debug("fuzzy query",
			slog.String("query", q),
			slog.String("field", opts.Field),
			slog.Int("results", len(results)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}

	if s.cache != nil {
		s.cache.Put(key, results)
	}
	return results
}

// Search executes a paginated search for tool callers.
func (s *SearchEngine) Search(req *types.SearchRequest) *types.SearchResponse {
	results := s.Query(req.Query, Options{Field: req.Field, Limit: req.Limit})

	mode := ModeFuzzy
	if NormalizeQuery(req.Query, s.config.MaxQueryLength) == "" {
		mode = ModePassThrough
	}

	// Apply pagination
	start := req.Offset
	if start < 0 {
		start = 0
	}
	if start > len(results) {
		start = len(results)
	}

	return &types.SearchResponse{
		Results: results[start:],
		Total:   len(results),
		Mode:    mode,
	}
}

func passThrough(ix *indexer.Index) []types.MatchResult {
	docs := ix.Docs()
	results := make([]types.MatchResult, len(docs))
	for i, doc := range docs {
		results[i] = types.MatchResult{
			ID:       doc.ID,
			Position: doc.Position,
			Record:   doc.Fields.Map(),
		}
	}
	return results
}

// hit accumulates the matched fields of one document.
type hit struct {
	docID   uint32
	score   float64
	matches []types.FieldMatch
}

func (s *SearchEngine) fuzzySearch(ix *indexer.Index, q, field string, limit int) []types.MatchResult {
	matcher := fuzzy.New(q, s.config.FuzzyThreshold)
	if matcher.Empty() {
		return []types.MatchResult{}
	}

	fields := ix.Fields()
	if field != "" {
		fields = []string{field}
	}

	hits := make(map[uint32]*hit)
	for _, f := range fields {
		col := ix.Column(f)
		if col == nil {
			// A scoped field outside the index is prepared on demand.
			col = indexer.NewColumn(f, ix.Docs())
		}

		it := planCandidates(col, matcher).Iterator()
		for it.HasNext() {
			docID := it.Next()
			text, ok := col.Text(docID)
			if !ok {
				continue
			}
			res, ok := matcher.MatchFolded(text)
			if !ok {
				continue
			}

			h := hits[docID]
			if h == nil {
				h = &hit{docID: docID, score: 1}
				hits[docID] = h
			}
			h.score *= math.Pow(math.Max(res.Score, scoreFloor), col.Norm(docID))
			if len(res.Spans) > 0 {
				display, _ := ix.Doc(docID).Text(f)
				h.matches = append(h.matches, types.FieldMatch{
					Field: f,
					Value: display,
					Spans: toSpans(res.Spans),
				})
			}
		}
	}

	ranked := make([]*hit, 0, len(hits))
	for _, h := range hits {
		ranked = append(ranked, h)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].docID < ranked[j].docID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]types.MatchResult, len(ranked))
	for i, h := range ranked {
		results[i] = toResult(ix.Doc(h.docID), h)
	}
	return results
}

func toResult(doc *flatten.Document, h *hit) types.MatchResult {
	return types.MatchResult{
		ID:       doc.ID,
		Position: doc.Position,
		Score:    h.score,
		Record:   doc.Fields.Map(),
		Matches:  h.matches,
	}
}

func toSpans(spans []fuzzy.Span) []types.Span {
	out := make([]types.Span, len(spans))
	for i, sp := range spans {
		out[i] = types.Span{Start: sp.Start, End: sp.End}
	}
	return out
}
