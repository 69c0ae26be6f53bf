package indexer

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
)

// singleflight group for deduplicating concurrent rebuilds of the same
// version and field scope.
var rebuildGroup singleflight.Group

// Build prepares a new snapshot of docs over fields and commits it. Nothing
// from the previous snapshot is reused. Columns are prepared concurrently
// and the swap happens under the write lock, so readers see either the old
// or the new snapshot.
func (idx *Indexer) Build(version uint64, docs []*flatten.Document, fields []string) *Index {
	start := time.Now()
	fields = slices.Clone(fields)

	columns := make([]*Column, len(fields))
	g := new(errgroup.Group)
	g.SetLimit(idx.workers)
	for i, field := range fields {
		g.Go(func() error {
			columns[i] = NewColumn(field, docs)
			return nil
		})
	}
	_ = g.Wait()

	ix := &Index{
		docs:    docs,
		byID:    make(map[string]uint32, len(docs)),
		columns: make(map[string]*Column, len(fields)),
	}
	for i, doc := range docs {
		ix.byID[doc.ID] = uint32(i)
	}
	for _, c := range columns {
		ix.columns[c.Name] = c
	}
	ix.meta = Meta{
		Generation: idx.generation.Add(1),
		Version:    version,
		Fields:     fields,
		Docs:       len(docs),
		BuiltAt:    time.Now(),
		Duration:   time.Since(start),
	}

	idx.commit(ix)

	slog.Info("index built",
		slog.Uint64("generation", ix.meta.Generation),
		slog.Uint64("version", version),
		slog.Int("docs", len(docs)),
		slog.Int("fields", len(fields)),
		slog.Int64("duration_ms", ix.meta.Duration.Milliseconds()),
	)
	return ix
}

// RebuildIfStale rebuilds only when the committed snapshot was built from a
// different dataset version or field scope. It reports whether a rebuild
// happened. Concurrent calls for the same version and scope share one build
// and its result.
func (idx *Indexer) RebuildIfStale(version uint64, docs []*flatten.Document, fields []string) bool {
	if idx.fresh(version, fields) {
		return false
	}

	key := fmt.Sprintf("%p/%d/%s", idx, version, strings.Join(fields, "\x00"))
	built, _, _ := rebuildGroup.Do(key, func() (any, error) {
		return idx.buildIfStale(version, docs, fields), nil
	})
	return built.(bool)
}

// buildIfStale builds unless another caller committed a matching snapshot
// since the caller last looked.
func (idx *Indexer) buildIfStale(version uint64, docs []*flatten.Document, fields []string) bool {
	if idx.fresh(version, fields) {
		return false
	}
	idx.Build(version, docs, fields)
	return true
}

func (idx *Indexer) fresh(version uint64, fields []string) bool {
	cur := idx.Current()
	return cur != nil && cur.meta.Matches(version, fields)
}
