package tools

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/settings"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// SettingsOutput is the output for fieldscope_settings_get and
// fieldscope_settings_update.
type SettingsOutput struct {
	// Settings is the validated settings document.
	Settings any      `json:"settings"`
	Path     string   `json:"path,omitempty"`
	Problems []string `json:"problems,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

// SettingsGetInput is the input for fieldscope_settings_get.
type SettingsGetInput struct{}

// ToolSettingsGet returns the current settings.
func ToolSettingsGet(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SettingsGetInput) (*sdkmcp.CallToolResult, SettingsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SettingsGetInput) (*sdkmcp.CallToolResult, SettingsOutput, error) {
		out, err := d.settingsOutput(d.Workspace.Settings().Get())
		if err != nil {
			return nil, SettingsOutput{}, err
		}
		if len(out.Problems) > 0 {
			out.Hint = "The settings file was invalid and defaults are in use; the next update rewrites it."
		}
		return nil, out, nil
	}
}

// SettingsUpdateInput is the input for fieldscope_settings_update. Omitted
// properties are left unchanged.
type SettingsUpdateInput struct {
	ThumbnailKey  *string          `json:"thumbnailKey,omitempty" jsonschema:"Key whose value is shown as each record's thumbnail"`
	ThumbnailType *string          `json:"thumbnailType,omitempty" jsonschema:"How the thumbnail is rendered: plain-text or image"`
	ShowKey       *bool            `json:"showKey,omitempty" jsonschema:"Show key names next to values"`
	Layout        *string          `json:"layout,omitempty" jsonschema:"One of Grid View, List View, Detail View, Card View, Table View, Compact View, Tile View"`
	SearchKey     *string          `json:"searchKey,omitempty" jsonschema:"Scope search to this key and rebuild the index; empty string searches every key"`
	Theme         *string          `json:"theme,omitempty" jsonschema:"Theme name"`
	Keys          map[string]*bool `json:"keys,omitempty" jsonschema:"Per-key visibility to merge; null removes an entry"`
}

// ToolSettingsUpdate validates and applies a settings change. A new
// searchKey goes through the query controller so the index is rebuilt and
// the current query re-run.
func ToolSettingsUpdate(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SettingsUpdateInput) (*sdkmcp.CallToolResult, SettingsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SettingsUpdateInput) (*sdkmcp.CallToolResult, SettingsOutput, error) {
		store := d.Workspace.Settings()

		patch := make(map[string]any)
		setIf(patch, "thumbnailKey", input.ThumbnailKey)
		setIf(patch, "thumbnailType", input.ThumbnailType)
		setIf(patch, "showKey", input.ShowKey)
		setIf(patch, "layout", input.Layout)
		setIf(patch, "theme", input.Theme)
		if len(input.Keys) > 0 {
			patch["keys"] = input.Keys
		}

		if input.SearchKey == nil && len(patch) == 0 {
			return nil, SettingsOutput{}, ErrInvalidInput("no settings to update")
		}

		// A rejected patch must leave the search scope unchanged.
		if len(patch) > 0 {
			data, err := json.Marshal(patch)
			if err != nil {
				return nil, SettingsOutput{}, fmt.Errorf("encoding settings patch: %w", err)
			}
			if _, err := store.Patch(data); err != nil {
				return nil, SettingsOutput{}, WrapSettingsError(err)
			}
		}

		var hint string
		if input.SearchKey != nil && *input.SearchKey != store.Get().SearchField() {
			view, err := d.Workspace.Controller().SetSearchKey(*input.SearchKey)
			if err != nil {
				return nil, SettingsOutput{}, WrapSettingsError(err)
			}
			if *input.SearchKey == "" {
				hint = printer.Sprintf("Search covers every key again; %d records match the current query.", view.Total)
			} else {
				hint = printer.Sprintf("Search is scoped to %q; %d records match the current query.", *input.SearchKey, view.Total)
			}
		}

		out, err := d.settingsOutput(store.Get())
		if err != nil {
			return nil, SettingsOutput{}, err
		}
		out.Hint = hint
		return nil, out, nil
	}
}

func setIf[T any](patch map[string]any, key string, v *T) {
	if v != nil {
		patch[key] = *v
	}
}

func (d *Deps) settingsOutput(s *settings.Settings) (SettingsOutput, error) {
	doc, err := types.ToAny(s)
	if err != nil {
		return SettingsOutput{}, fmt.Errorf("encoding settings: %w", err)
	}
	store := d.Workspace.Settings()
	return SettingsOutput{
		Settings: doc,
		Path:     store.Path(),
		Problems: store.Problems(),
	}, nil
}
