// Package indexer builds immutable search snapshots over flattened
// documents and swaps them in atomically.
package indexer

import (
	"slices"
	"time"

	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// Meta describes how and when an Index was built.
type Meta struct {
	Generation uint64
	// Version is the dataset version the snapshot was built from.
	Version uint64
	// Fields are the indexed field names.
	Fields   []string
	Docs     int
	BuiltAt  time.Time
	Duration time.Duration
}

// Matches reports whether the snapshot was built from version over fields.
func (m Meta) Matches(version uint64, fields []string) bool {
	return m.Version == version && slices.Equal(m.Fields, fields)
}

// ToSummary converts Meta for tool responses.
func (m Meta) ToSummary() *types.IndexSummary {
	return &types.IndexSummary{
		Generation: m.Generation,
		Version:    m.Version,
		Fields:     m.Fields,
		Docs:       m.Docs,
		BuiltAt:    m.BuiltAt.UTC().Format(time.RFC3339),
		DurationMs: m.Duration.Milliseconds(),
	}
}
