package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// maxListedKeys caps how many keys the prompt lists inline.
const maxListedKeys = 40

// HandleExploreDataset implements the dataset exploration workflow.
func HandleExploreDataset(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var source, goal string
		if req != nil && req.Params != nil && req.Params.Arguments != nil {
			source = req.Params.Arguments["source"]
			goal = req.Params.Arguments["goal"]
		}

		var status *types.DatasetStatus
		if cfg.Status != nil {
			status = cfg.Status()
		}
		p := message.NewPrinter(language.English)

		var sb strings.Builder

		// 1. Role/Persona
		sb.WriteString("# Explore a Dataset\n\n")
		sb.WriteString("You are a data analyst exploring a JSON or CSV dataset through fuzzy search. ")
		sb.WriteString("Work from the key list towards specific records, keeping tool output small.\n\n")
		if goal != "" {
			fmt.Fprintf(&sb, "**Goal**: %s\n\n", goal)
		}

		// 2. Current state
		sb.WriteString("## Current Dataset\n\n")
		switch {
		case status != nil && status.Loaded:
			p.Fprintf(&sb, "- Source: `%s` (%s, ids by %s)\n", status.Source, status.Format, status.IDRule)
			p.Fprintf(&sb, "- Records: %d\n", status.Records)
			p.Fprintf(&sb, "- Keys (%d): %s\n", len(status.UniqueKeys), listKeys(status.UniqueKeys))
			if status.SearchKey != "" {
				fmt.Fprintf(&sb, "- Search is scoped to `%s`\n", status.SearchKey)
			}
			if status.LastError != "" {
				fmt.Fprintf(&sb, "- Last load failed: %s\n", status.LastError)
			}
			if status.SettingsErr != "" {
				fmt.Fprintf(&sb, "- Settings: %s\n", status.SettingsErr)
			}
			if source != "" {
				fmt.Fprintf(&sb, "\nTo switch datasets, call `fieldscope_dataset_load` with `%s`.\n", source)
			}
		case source != "":
			fmt.Fprintf(&sb, "Nothing is loaded yet. Start with `fieldscope_dataset_load` using `%s` as path or url.\n", source)
		default:
			sb.WriteString("Nothing is loaded yet. Start with `fieldscope_dataset_load` (path, url or inline content).\n")
		}

		// 3. Workflow
		sb.WriteString("\n## Workflow\n\n")
		sb.WriteString("1. **Load**: `fieldscope_dataset_load(path|url|content)`. Use `data_path` (e.g. `data.items`) when records are nested, ")
		sb.WriteString("or `filter` (jq, e.g. `.items | map(select(.active))`) to reshape first.\n")
		sb.WriteString("2. **Keys**: read `unique_keys` from the load status or the `fieldscope://keys` resource. Nested objects are flattened to dotted keys (`address.city`); arrays of objects add indexed keys (`items[0].name`). ")
		sb.WriteString("`fieldscope_dataset_describe` profiles each key (type, distinct values, format) and suggests a searchKey.\n")
		sb.WriteString("3. **Search**: `fieldscope_dataset_search(query, field?)`. Results are ranked best first, score 0 is a perfect match. ")
		sb.WriteString("Set `highlight: true` to see matched characters as `[[...]]`.\n")
		sb.WriteString("4. **Scope**: when one key matters, `fieldscope_settings_update(searchKey: \"key\")` rebuilds the index for that key only. Clear it with `searchKey: \"\"`.\n")
		sb.WriteString("5. **Inspect**: `fieldscope_dataset_get_record(id)` returns a trimmed record; read `fieldscope://record/{id}` for the full one.\n")

		// 4. Query syntax
		sb.WriteString("\n## Query Syntax\n\n")
		sb.WriteString("| Token | Meaning |\n")
		sb.WriteString("|-------|---------|\n")
		sb.WriteString("| `oslo` | fuzzy match |\n")
		sb.WriteString("| `'oslo` | contains `oslo` |\n")
		sb.WriteString("| `=oslo` | whole value equals `oslo` |\n")
		sb.WriteString("| `^os` / `lo$` | starts / ends with |\n")
		sb.WriteString("| `!oslo` | does not contain |\n")
		sb.WriteString("| `a b` | both terms (AND) |\n")
		sb.WriteString("| `a \\| b` | either term (OR) |\n")

		// 5. Interactive mode
		sb.WriteString("\n## Interactive Search\n\n")
		sb.WriteString("`fieldscope_dataset_type(text)` behaves like a search box: input is debounced, fewer than two characters show every record, ")
		p.Fprintf(&sb, "and the first %d results are displayed. `fieldscope_dataset_load_more` reveals more.\n", cfg.PageSize)

		// 6. Tips
		sb.WriteString("\n## Tips\n")
		sb.WriteString("- Hide noisy keys with `fieldscope_settings_update(keys: {\"key\": false})`; hidden keys are left out of returned fields\n")
		sb.WriteString("- An empty `query` lists records in dataset order; use `offset` to page\n")
		sb.WriteString("- A failed load keeps the previous dataset; check `last_error` in `fieldscope_dataset_status`\n")

		return &sdkmcp.GetPromptResult{
			Description: "Dataset exploration workflow",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}

// listKeys renders keys as inline code, truncated after maxListedKeys.
func listKeys(keys []string) string {
	if len(keys) == 0 {
		return "none"
	}
	shown := keys[:min(len(keys), maxListedKeys)]
	quoted := make([]string, len(shown))
	for i, k := range shown {
		quoted[i] = "`" + k + "`"
	}
	out := strings.Join(quoted, ", ")
	if rest := len(keys) - len(shown); rest > 0 {
		out += fmt.Sprintf(", ... (%d more)", rest)
	}
	return out
}
