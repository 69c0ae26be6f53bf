package indexer

import (
	"sync"
	"sync/atomic"

	"github.com/usestring/fieldscope-mcp/internal/config"
	"github.com/usestring/fieldscope-mcp/internal/flatten"
)

// Index is an immutable search snapshot over one dataset version.
// Document ids are positions in Docs.
type Index struct {
	meta    Meta
	docs    []*flatten.Document
	byID    map[string]uint32
	columns map[string]*Column
}

// Meta returns build information for the snapshot.
func (ix *Index) Meta() Meta { return ix.meta }

// Generation is a process-unique counter identifying the snapshot.
func (ix *Index) Generation() uint64 { return ix.meta.Generation }

// Len returns the number of documents.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.docs)
}

// Docs returns the documents in dataset order. Callers must not modify it.
func (ix *Index) Docs() []*flatten.Document { return ix.docs }

// Doc returns the document with the given doc id.
func (ix *Index) Doc(docID uint32) *flatten.Document {
	if int(docID) >= len(ix.docs) {
		return nil
	}
	return ix.docs[docID]
}

// DocByID looks a document up by record id.
func (ix *Index) DocByID(id string) (*flatten.Document, bool) {
	if ix == nil {
		return nil, false
	}
	docID, ok := ix.byID[id]
	if !ok {
		return nil, false
	}
	return ix.docs[docID], true
}

// Fields returns the indexed field names in build order.
func (ix *Index) Fields() []string { return ix.meta.Fields }

// Column returns the prepared column for field, or nil if the field is
// not part of the index.
func (ix *Index) Column(field string) *Column {
	if ix == nil {
		return nil
	}
	return ix.columns[field]
}

// Indexer holds the committed index and swaps in rebuilt snapshots.
type Indexer struct {
	mu      sync.RWMutex
	current *Index

	generation atomic.Uint64
	workers    int
}

// New creates an Indexer with no committed index.
func New(cfg *config.Config) *Indexer {
	workers := 8
	if cfg != nil && cfg.BuildWorkers > 0 {
		workers = cfg.BuildWorkers
	}
	return &Indexer{workers: workers}
}

// Current returns the committed snapshot, or nil before the first build.
func (idx *Indexer) Current() *Index {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.current
}

// commit replaces the committed snapshot.
func (idx *Indexer) commit(ix *Index) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.current = ix
}
