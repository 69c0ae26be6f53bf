// Package fuzzy implements case-insensitive approximate substring matching
// with highlight spans and an extended token syntax.
//
// A field matches a plain token when some substring of it can be turned
// into the token with few edits: errors / max(len(token), len(substring))
// must not exceed the threshold. Exact substrings score 0. Position in the
// field does not matter.
package fuzzy

import (
	"sort"
)

// DefaultThreshold is the score cut-off used when none is configured.
const DefaultThreshold = 0.25

// Span is an inclusive range of rune offsets.
type Span struct {
	Start int
	End   int
}

// Result is the outcome of matching one field.
type Result struct {
	Score float64
	Spans []Span
}

// Matcher matches a parsed query against field texts. It is immutable and
// safe for concurrent use.
type Matcher struct {
	groups    []Group
	threshold float64
}

// New parses query with the extended syntax.
func New(query string, threshold float64) *Matcher {
	if threshold < 0 {
		threshold = 0
	}
	return &Matcher{groups: Parse(query), threshold: threshold}
}

// Groups returns the parsed OR groups.
func (m *Matcher) Groups() []Group { return m.groups }

// Threshold returns the score cut-off.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Empty reports whether the query has no tokens.
func (m *Matcher) Empty() bool { return len(m.groups) == 0 }

// Match folds text and matches it.
func (m *Matcher) Match(text string) (Result, bool) {
	return m.MatchFolded(Fold(text))
}

// MatchFolded matches an already case-folded text. The first OR group
// whose tokens all match wins; its score is the mean token score.
func (m *Matcher) MatchFolded(text []rune) (Result, bool) {
	for _, g := range m.groups {
		var (
			total     float64
			positions []int
			matched   = true
		)
		for _, tok := range g {
			score, pos, ok := m.matchToken(tok, text)
			if !ok {
				matched = false
				break
			}
			total += score
			positions = append(positions, pos...)
		}
		if matched {
			return Result{Score: total / float64(len(g)), Spans: toSpans(positions)}, true
		}
	}
	return Result{Score: 1}, false
}

func (m *Matcher) matchToken(tok Token, text []rune) (float64, []int, bool) {
	p := tok.Pattern
	switch tok.Op {
	case OpExact:
		if !equalRunes(text, p) {
			return 1, nil, false
		}
		return 0, rangeOf(0, len(p)), true

	case OpPrefix:
		if !hasPrefix(text, p) {
			return 1, nil, false
		}
		return 0, rangeOf(0, len(p)), true

	case OpSuffix:
		if !hasSuffix(text, p) {
			return 1, nil, false
		}
		return 0, rangeOf(len(text)-len(p), len(text)), true

	case OpInclude:
		occ := occurrences(p, text)
		if len(occ) == 0 {
			return 1, nil, false
		}
		return 0, expand(occ, len(p)), true

	case OpNotInclude:
		return 0, nil, len(occurrences(p, text)) == 0

	case OpNotPrefix:
		return 0, nil, !hasPrefix(text, p)

	case OpNotSuffix:
		return 0, nil, !hasSuffix(text, p)
	}

	if occ := occurrences(p, text); len(occ) > 0 {
		return 0, expand(occ, len(p)), true
	}
	score, start, end := approx(p, text)
	if score > m.threshold {
		return score, nil, false
	}
	if end <= start {
		return score, nil, true
	}
	return score, alignedPositions(p, text, start, end), true
}

func rangeOf(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func expand(starts []int, length int) []int {
	out := make([]int, 0, len(starts)*length)
	for _, s := range starts {
		out = append(out, rangeOf(s, s+length)...)
	}
	return out
}

// toSpans merges rune positions into sorted, non-overlapping inclusive
// spans. Adjacent positions join one span.
func toSpans(positions []int) []Span {
	if len(positions) == 0 {
		return nil
	}
	sorted := append([]int(nil), positions...)
	sort.Ints(sorted)

	spans := []Span{{Start: sorted[0], End: sorted[0]}}
	for _, p := range sorted[1:] {
		last := &spans[len(spans)-1]
		if p <= last.End+1 {
			if p > last.End {
				last.End = p
			}
			continue
		}
		spans = append(spans, Span{Start: p, End: p})
	}
	return spans
}
