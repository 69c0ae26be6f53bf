package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/ingest"
	"github.com/usestring/fieldscope-mcp/internal/workspace"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// DatasetLoadInput is the input for fieldscope_dataset_load.
type DatasetLoadInput struct {
	Path     string `json:"path,omitempty" jsonschema:"Local file path of a JSON or CSV dataset"`
	URL      string `json:"url,omitempty" jsonschema:"http(s) URL of a JSON or CSV dataset. GitHub blob links are fetched from raw.githubusercontent.com"`
	Content  string `json:"content,omitempty" jsonschema:"Inline dataset text (JSON or CSV)"`
	Format   string `json:"format,omitempty" jsonschema:"Force json or csv (default: detected from content type or extension)"`
	DataPath string `json:"data_path,omitempty" jsonschema:"Dotted path to the records inside a JSON document, e.g. data.items or results[0].rows"`
	Filter   string `json:"filter,omitempty" jsonschema:"jq expression applied to the JSON document before records are extracted, e.g. .items | map(select(.active))"`
}

// DatasetOutput is the output for fieldscope_dataset_load and
// fieldscope_dataset_status.
type DatasetOutput struct {
	Status *types.DatasetStatus `json:"status"`
	Hint   string               `json:"hint,omitempty"`
}

// ToolDatasetLoad loads a dataset and makes it the active one.
func ToolDatasetLoad(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetLoadInput) (*sdkmcp.CallToolResult, DatasetOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetLoadInput) (*sdkmcp.CallToolResult, DatasetOutput, error) {
		switch input.Format {
		case "", "json", "csv":
		default:
			return nil, DatasetOutput{}, ErrInvalidInput(fmt.Sprintf("format must be json or csv, got %q", input.Format))
		}
		if err := ingest.ValidateFilter(input.Filter); err != nil {
			return nil, DatasetOutput{}, &CodedError{Code: ErrCodeInvalidInput, Message: "filter is not a valid jq expression", Cause: err}
		}

		status, err := d.Workspace.Load(ctx, workspace.Request{
			Path:     input.Path,
			URL:      input.URL,
			Content:  input.Content,
			Format:   input.Format,
			DataPath: input.DataPath,
			Filter:   input.Filter,
		})
		if err != nil {
			return nil, DatasetOutput{}, WrapLoadError(err)
		}

		return nil, DatasetOutput{Status: status, Hint: loadHint(status)}, nil
	}
}

// DatasetStatusInput is the input for fieldscope_dataset_status.
type DatasetStatusInput struct{}

// ToolDatasetStatus reports the active dataset.
func ToolDatasetStatus(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetStatusInput) (*sdkmcp.CallToolResult, DatasetOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetStatusInput) (*sdkmcp.CallToolResult, DatasetOutput, error) {
		status := d.Workspace.Status()

		var hint string
		switch {
		case !status.Loaded && status.LastError != "":
			hint = "The last load failed; fix the source and call fieldscope_dataset_load again."
		case !status.Loaded:
			hint = "No dataset loaded. Call fieldscope_dataset_load with a path, url or content."
		case status.LastError != "":
			hint = "The last load failed; the previous dataset is still active."
		case status.SettingsErr != "":
			hint = "The dataset is loaded and its keys are visible, but the settings file could not be written."
		default:
			hint = loadHint(status)
		}
		return nil, DatasetOutput{Status: status, Hint: hint}, nil
	}
}

func loadHint(status *types.DatasetStatus) string {
	if status.Records == 0 {
		return "The dataset is empty. Check data_path or filter."
	}
	hint := printer.Sprintf("%s with %s. ",
		countNoun(status.Records, "record", "records"),
		countNoun(len(status.UniqueKeys), "key", "keys"))
	if status.FirstKey != "" {
		hint += fmt.Sprintf("Use fieldscope_dataset_search(query=...) to find records, or field=%q to scope matching.", status.FirstKey)
	} else {
		hint += "Use fieldscope_dataset_search(query=...) to find records."
	}
	return hint
}
