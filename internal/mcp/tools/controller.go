package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/controller"
)

// ViewOutput is the displayed slice of the query controller's results.
type ViewOutput struct {
	Query          string      `json:"query"`
	Field          string      `json:"field,omitempty"`
	Mode           string      `json:"mode"`
	DisplayedCount int         `json:"displayed_count"`
	Total          int         `json:"total"`
	HasMore        bool        `json:"has_more"`
	Pending        bool        `json:"pending,omitempty"`
	Results        []RecordHit `json:"results,omitzero"`
	Hint           string      `json:"hint,omitempty"`
}

// DatasetTypeInput is the input for fieldscope_dataset_type.
type DatasetTypeInput struct {
	Text          string `json:"text" jsonschema:"The full current contents of the search box"`
	Debounce      *bool  `json:"debounce,omitempty" jsonschema:"Wait for the debounce interval before applying (default: true). false applies immediately"`
	IncludeFields bool   `json:"include_fields,omitempty" jsonschema:"Include each displayed record's visible flattened fields (default: false)"`
}

// ToolDatasetType feeds keystrokes to the query controller.
func ToolDatasetType(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetTypeInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetTypeInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
		c := d.Workspace.Controller()

		var view controller.View
		if input.Debounce == nil || *input.Debounce {
			c.OnInput(input.Text)
			view = c.View()
		} else {
			view = c.SetQuery(input.Text)
		}
		return nil, d.toView(view, input.IncludeFields), nil
	}
}

// DatasetLoadMoreInput is the input for fieldscope_dataset_load_more.
type DatasetLoadMoreInput struct {
	IncludeFields bool `json:"include_fields,omitempty" jsonschema:"Include each displayed record's visible flattened fields (default: false)"`
}

// ToolDatasetLoadMore reveals the next page of the controller's results.
func ToolDatasetLoadMore(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetLoadMoreInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetLoadMoreInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
		return nil, d.toView(d.Workspace.Controller().LoadMore(), input.IncludeFields), nil
	}
}

func (d *Deps) toView(v controller.View, withFields bool) ViewOutput {
	out := ViewOutput{
		Query:          v.State.Query,
		Field:          v.State.Field,
		Mode:           v.State.Mode.String(),
		DisplayedCount: len(v.Results),
		Total:          v.Total,
		HasMore:        v.HasMore,
		Pending:        v.Pending,
		Results:        d.toHits(v.Results, withFields, false),
	}
	switch {
	case v.Pending:
		out.Hint = "Input is debounced; call fieldscope_dataset_type again or with debounce=false to see the applied results."
	case v.HasMore:
		out.Hint = printer.Sprintf("Showing %d of %d. Call fieldscope_dataset_load_more for more.", len(v.Results), v.Total)
	}
	return out
}
