package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/pkg/jsoncompact"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// GetRecordInput is the input for fieldscope_dataset_get_record.
type GetRecordInput struct {
	ID   string   `json:"id" jsonschema:"required,Record id as returned by search"`
	Full bool     `json:"full,omitempty" jsonschema:"Return the record without trimming arrays and long strings (default: false)"`
	Keys []string `json:"keys,omitempty" jsonschema:"Only return these keys. Flattened keys (address.city, items[0].name) are read from the flattened fields, other names from the record's top-level properties (address)"`
}

// GetRecordOutput is the output for fieldscope_dataset_get_record.
type GetRecordOutput struct {
	ID       string             `json:"id"`
	Position int                `json:"position"`
	Record   any                `json:"record,omitempty"`
	Fields   map[string]any     `json:"fields,omitempty"`
	Values   map[string]any     `json:"values,omitempty"`
	Missing  []string           `json:"missing,omitempty"`
	Resource *types.ResourceRef `json:"resource,omitempty"`
}

// ToolDatasetGetRecord returns one record of the active dataset.
func ToolDatasetGetRecord(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetRecordInput) (*sdkmcp.CallToolResult, GetRecordOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetRecordInput) (*sdkmcp.CallToolResult, GetRecordOutput, error) {
		if input.ID == "" {
			return nil, GetRecordOutput{}, ErrInvalidInput("id is required")
		}
		doc, err := d.LookupRecord(input.ID)
		if err != nil {
			return nil, GetRecordOutput{}, err
		}

		out := GetRecordOutput{
			ID:       doc.ID,
			Position: doc.Position,
			Record:   doc.Source,
		}
		if len(input.Keys) > 0 {
			out.Values, out.Missing = d.lookupKeys(doc, input.Keys, input.Full)
			out.Record = nil
			return nil, out, nil
		}

		out.Fields = d.VisibleFields(doc.Fields.Map())
		if !input.Full {
			out.Record = jsoncompact.CompactValue(doc.Source, d.CompactOptions())
			out.Resource = &types.ResourceRef{
				URI:  RecordURI(doc.ID),
				MIME: MimeJSON,
				Hint: "Full record without trimming",
			}
		}
		return nil, out, nil
	}
}

// lookupKeys resolves keys against doc's flattened fields, then its
// top-level properties. Requested keys are returned even when hidden.
func (d *Deps) lookupKeys(doc *flatten.Document, keys []string, full bool) (map[string]any, []string) {
	values := make(map[string]any, len(keys))
	var missing []string
	for _, k := range keys {
		v, ok := doc.Lookup(k)
		if !ok {
			missing = append(missing, k)
			continue
		}
		if fv, isField := v.(flatten.Value); isField {
			v = fv.Interface()
		}
		if !full {
			v = jsoncompact.CompactValue(v, d.CompactOptions())
		}
		values[k] = v
	}
	return values, missing
}
