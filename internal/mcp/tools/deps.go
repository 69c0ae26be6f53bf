package tools

import (
	"github.com/usestring/fieldscope-mcp/internal/config"
	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/internal/keys"
	"github.com/usestring/fieldscope-mcp/internal/workspace"
	"github.com/usestring/fieldscope-mcp/pkg/jsoncompact"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Workspace *workspace.Workspace
	Config    *config.Config
}

// CompactOptions returns the record compaction settings from config.
func (d *Deps) CompactOptions() *jsoncompact.Options {
	return &jsoncompact.Options{
		MaxArrayItems: d.Config.CompactMaxArrayItems,
		MaxStringLen:  d.Config.CompactMaxStringLen,
		MaxDepth:      d.Config.CompactMaxDepth,
	}
}

// LookupRecord finds a record of the active dataset by id.
func (d *Deps) LookupRecord(id string) (*flatten.Document, error) {
	ix := d.Workspace.Index()
	if ix.Len() == 0 {
		return nil, ErrNoDataset()
	}
	doc, ok := ix.DocByID(id)
	if !ok {
		return nil, ErrNotFound("record", id)
	}
	return doc, nil
}

// VisibleFields returns the flattened fields of doc whose keys are not
// hidden in the settings, with long values compacted.
func (d *Deps) VisibleFields(fields map[string]any) map[string]any {
	visibility := d.Workspace.Settings().Get().Keys
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	out := make(map[string]any, len(names))
	for _, k := range keys.Visible(visibility, names) {
		out[k] = jsoncompact.CompactValue(fields[k], d.CompactOptions())
	}
	return out
}
