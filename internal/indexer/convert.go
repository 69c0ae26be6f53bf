package indexer

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/internal/fuzzy"
)

// Column is one field prepared for matching: the folded text and norm of
// every document that has the field, plus bitmaps for candidate planning.
type Column struct {
	Name string

	// Texts and Norms are indexed by doc id; entries for documents without
	// the field are nil / 0.
	Texts [][]rune
	Norms []float64

	// Present holds the docs that carry the field.
	Present *roaring.Bitmap

	// runes maps each folded rune to the docs whose text contains it.
	runes map[rune]*roaring.Bitmap
}

// Text returns the folded text of docID and whether the field is present.
func (c *Column) Text(docID uint32) ([]rune, bool) {
	if c == nil || int(docID) >= len(c.Texts) || !c.Present.Contains(docID) {
		return nil, false
	}
	return c.Texts[docID], true
}

// Norm returns the field-length norm of docID.
func (c *Column) Norm(docID uint32) float64 {
	if c == nil || int(docID) >= len(c.Norms) {
		return 1
	}
	return c.Norms[docID]
}

// RuneBitmap returns the docs whose text contains r, or nil.
func (c *Column) RuneBitmap(r rune) *roaring.Bitmap {
	if c == nil {
		return nil
	}
	return c.runes[r]
}

// NewColumn prepares field over docs. Doc ids are slice positions.
func NewColumn(field string, docs []*flatten.Document) *Column {
	c := &Column{
		Name:    field,
		Texts:   make([][]rune, len(docs)),
		Norms:   make([]float64, len(docs)),
		Present: roaring.New(),
		runes:   make(map[rune]*roaring.Bitmap),
	}
	norms := newNormCache()

	for i, doc := range docs {
		text, ok := doc.Text(field)
		if !ok {
			continue
		}
		docID := uint32(i)
		folded := fuzzy.Fold(text)
		c.Texts[i] = folded
		c.Norms[i] = norms.get(text)
		c.Present.Add(docID)

		for _, r := range folded {
			addToBitmap(c.runes, r, docID)
		}
	}

	c.Present.RunOptimize()
	return c
}

// addToBitmap adds a docID to a rune-keyed bitmap index.
func addToBitmap(index map[rune]*roaring.Bitmap, key rune, docID uint32) {
	bm, exists := index[key]
	if !exists {
		bm = roaring.New()
		index[key] = bm
	}
	bm.Add(docID)
}
