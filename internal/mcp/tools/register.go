package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: fieldscope_dataset_load
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_dataset_load",
		Description: "Load a JSON or CSV dataset from exactly one of path, url or content and make it the active dataset. Returns status {records, unique_keys, first_key, keys, index} and a hint. JSON arrays become one record per element, objects one record per key; ids come from an id or _id field when every record has a unique one, else the position. Use data_path to select a nested array and filter (jq) to reshape before records are extracted. A failed load keeps the previous dataset active.",
	}, ToolDatasetLoad(d))

	// Tool 2: fieldscope_dataset_status
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_dataset_status",
		Description: "Report the active dataset: source, record count, unique_keys, first_key, per-key visibility, search scope, index fields and the last load error, if any.",
	}, ToolDatasetStatus(d))

	// Tool 3: fieldscope_dataset_search
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_dataset_search",
		Description: "Fuzzy search over the flattened fields of every record. Returns ranked results {id, position, score (0 = perfect), matches [{field, value, spans}]} with inclusive character spans, plus total and mode (fuzzy or pass-through for an empty query). Set highlight=true for [[ ]] marked text and include_fields=true for record fields. Use fieldscope_dataset_get_record for a full record.",
	}, ToolDatasetSearch(d))

	// Tool 4: fieldscope_dataset_type
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_dataset_type",
		Description: "Drive the interactive search box: send the box's full text. Input is debounced like keystrokes (set debounce=false to apply now). Queries shorter than two characters show every record (idle mode); longer ones run fuzzy search (active mode). Returns the displayed page (200 records at first) with total and has_more.",
	}, ToolDatasetType(d))

	// Tool 5: fieldscope_dataset_load_more
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_dataset_load_more",
		Description: "Reveal the next 100 results of the interactive search, up to the total. Returns the displayed page.",
	}, ToolDatasetLoadMore(d))

	// Tool 6: fieldscope_dataset_get_record
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_dataset_get_record",
		Description: "Get one record by id. Returns the original record (arrays and long strings trimmed unless full=true) and its visible flattened fields, plus a resource URI for the untrimmed record. Pass keys to read only those values: flattened keys first, then top-level properties.",
	}, ToolDatasetGetRecord(d))

	// Tool 7: fieldscope_dataset_describe
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_dataset_describe",
		Description: "Profile the flattened keys of the active dataset: type, frequency, distinct count, examples, detected format (uuid, iso8601, url, image, email, enum) and visibility. Large datasets are sampled evenly. Set include_schema=true for a JSON Schema of the original records. Use it to choose a searchKey or thumbnailKey.",
	}, ToolDatasetDescribe(d))

	// Tool 8: fieldscope_settings_get
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_settings_get",
		Description: "Get the explorer settings: thumbnailKey, thumbnailType, showKey, layout, searchKey, theme and per-key visibility (keys).",
	}, ToolSettingsGet(d))

	// Tool 9: fieldscope_settings_update
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fieldscope_settings_update",
		Description: "Update explorer settings. Only the given properties change; keys entries are merged and null removes one. Changes are validated against the settings schema and rejected as a whole on error. Setting searchKey rebuilds the index for that key and re-runs the interactive query.",
	}, ToolSettingsUpdate(d))
}
