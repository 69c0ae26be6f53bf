package search

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/fieldscope-mcp/internal/fuzzy"
	"github.com/usestring/fieldscope-mcp/internal/indexer"
)

// planCandidates narrows a column to the documents that could possibly
// match: the union over OR groups of the intersection of each token's
// candidates. A token's pattern runes that are absent from a text each
// cost at least one edit, so texts missing more distinct runes than the
// token's error budget are skipped.
func planCandidates(col *indexer.Column, m *fuzzy.Matcher) *roaring.Bitmap {
	result := roaring.New()
	for _, g := range m.Groups() {
		groupBM := col.Present.Clone()
		for _, tok := range g {
			if tok.Op.Inverse() {
				continue
			}
			groupBM.And(tokenCandidates(col, tok, m.Threshold()))
			if groupBM.IsEmpty() {
				break
			}
		}
		result.Or(groupBM)
	}
	return result
}

func tokenCandidates(col *indexer.Column, tok fuzzy.Token, threshold float64) *roaring.Bitmap {
	distinct := distinctRunes(tok.Pattern)
	allowed := tok.MaxErrors(threshold)
	if allowed >= len(distinct) {
		return col.Present
	}

	bitmaps := make([]*roaring.Bitmap, 0, len(distinct))
	for _, r := range distinct {
		bm := col.RuneBitmap(r)
		if bm == nil {
			if allowed == 0 {
				return roaring.New() // No matches
			}
			continue
		}
		bitmaps = append(bitmaps, bm)
	}
	if allowed == 0 {
		return roaring.FastAnd(bitmaps...)
	}

	need := len(distinct) - allowed
	if len(bitmaps) < need {
		return roaring.New()
	}

	counts := make(map[uint32]int)
	result := roaring.New()
	for _, bm := range bitmaps {
		it := bm.Iterator()
		for it.HasNext() {
			docID := it.Next()
			counts[docID]++
			if counts[docID] == need {
				result.Add(docID)
			}
		}
	}
	return result
}

func distinctRunes(p []rune) []rune {
	seen := make(map[rune]struct{}, len(p))
	out := make([]rune, 0, len(p))
	for _, r := range p {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
