// Package types provides shared types for fieldscope-mcp.
// These types are used across multiple packages and are designed for external consumption.
package types

import "encoding/json"

// ToAny round-trips a typed value through JSON to produce an untyped any.
// Use this when a tool output field must be any (instead of json.RawMessage)
// to satisfy the MCP SDK's schema validation.
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DatasetStatus summarises the active dataset.
type DatasetStatus struct {
	Loaded      bool            `json:"loaded"`
	SnapshotID  string          `json:"snapshot_id,omitempty"`
	Version     uint64          `json:"version"`
	Source      string          `json:"source,omitempty"`
	Format      string          `json:"format,omitempty"`
	IDRule      string          `json:"id_rule,omitempty"`
	Records     int             `json:"records"`
	UniqueKeys  []string        `json:"unique_keys"`
	FirstKey    string          `json:"first_key,omitempty"`
	Keys        map[string]bool `json:"keys"`
	SearchKey   string          `json:"search_key,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	SettingsErr string          `json:"settings_error,omitempty"`
	LoadedAtMs  int64           `json:"loaded_at_ms,omitempty"`
	Index       *IndexSummary   `json:"index,omitempty"`
	Watching    bool            `json:"watching,omitempty"`
	RefreshCron string          `json:"refresh_cron,omitempty"`
}

// IndexSummary describes the committed search index.
type IndexSummary struct {
	Generation uint64   `json:"generation"`
	Version    uint64   `json:"version"`
	Fields     []string `json:"fields"`
	Docs       int      `json:"docs"`
	BuiltAt    string   `json:"built_at"`
	DurationMs int64    `json:"duration_ms"`
}

// RecordView is one record prepared for display.
type RecordView struct {
	ID       string         `json:"id"`
	Position int            `json:"position"`
	Fields   map[string]any `json:"fields"`
	Original any            `json:"original,omitempty"`
}

// ResourceRef points to an MCP resource.
type ResourceRef struct {
	URI  string `json:"uri"`
	MIME string `json:"mime"`
	Hint string `json:"hint,omitempty"`
}
