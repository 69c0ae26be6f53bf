package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/search"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// Result paging limits for fieldscope_dataset_search.
const (
	defaultSearchPage = 20
	maxSearchPage     = 200
)

// DatasetSearchInput is the input for fieldscope_dataset_search.
type DatasetSearchInput struct {
	Query         string `json:"query,omitempty" jsonschema:"Fuzzy query. Space-separated terms are ANDed, | separates OR groups. Prefixes: = exact, ' includes, ! not, ^ prefix, suffix $. Empty returns every record in dataset order"`
	Field         string `json:"field,omitempty" jsonschema:"Match only this flattened key, e.g. address.city (default: the configured searchKey, else all keys)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Max results returned (default: 20, max: 200)"`
	Offset        int    `json:"offset,omitempty" jsonschema:"Pagination offset into the ranked results"`
	IncludeFields bool   `json:"include_fields,omitempty" jsonschema:"Include each record's visible flattened fields (default: false)"`
	Highlight     bool   `json:"highlight,omitempty" jsonschema:"Render matched characters wrapped in [[ ]] markers (default: false)"`
}

// DatasetSearchOutput is the output for fieldscope_dataset_search.
type DatasetSearchOutput struct {
	Results []RecordHit `json:"results,omitzero"`
	Total   int         `json:"total"`
	Mode    string      `json:"mode"`
	Field   string      `json:"field,omitempty"`
	Hint    string      `json:"hint,omitempty"`
}

// ToolDatasetSearch runs a query directly against the search engine.
func ToolDatasetSearch(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetSearchInput) (*sdkmcp.CallToolResult, DatasetSearchOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetSearchInput) (*sdkmcp.CallToolResult, DatasetSearchOutput, error) {
		if d.Workspace.Snapshot() == nil {
			return nil, DatasetSearchOutput{}, ErrNoDataset()
		}
		if input.Offset < 0 {
			return nil, DatasetSearchOutput{}, ErrInvalidInput("offset must be >= 0")
		}

		limit := input.Limit
		if limit <= 0 {
			limit = defaultSearchPage
		}
		limit = min(limit, maxSearchPage)

		field := input.Field
		if field == "" {
			field = d.Workspace.Settings().Get().SearchField()
		}
		if field != "" && !indexed(d, field) {
			return nil, DatasetSearchOutput{}, ErrInvalidInput(fmt.Sprintf("field %q is not indexed; set it as searchKey with fieldscope_settings_update first", field))
		}

		resp := d.Workspace.Engine().Search(&types.SearchRequest{
			Query:  input.Query,
			Field:  field,
			Offset: input.Offset,
		})
		page := resp.Results[:min(limit, len(resp.Results))]

		var hint string
		shown := input.Offset + len(page)
		switch {
		case resp.Total == 0 && resp.Mode == search.ModeFuzzy:
			hint = "No matches. Try fewer characters, drop a term, or clear field."
		case shown < resp.Total:
			hint = printer.Sprintf("Showing %d of %d. Use offset=%d for the next page, or fieldscope_dataset_get_record(id=...) for a full record.", shown, resp.Total, shown)
		case len(page) == 1:
			hint = fmt.Sprintf("Single match. Use fieldscope_dataset_get_record(id=%q) for the full record.", page[0].ID)
		}

		return nil, DatasetSearchOutput{
			Results: d.toHits(page, input.IncludeFields, input.Highlight),
			Total:   resp.Total,
			Mode:    resp.Mode,
			Field:   field,
			Hint:    hint,
		}, nil
	}
}

// indexed reports whether field is covered by the committed index.
func indexed(d *Deps, field string) bool {
	for _, f := range d.Workspace.Index().Fields() {
		if f == field {
			return true
		}
	}
	return false
}
