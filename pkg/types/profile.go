package types

// KeyProfile describes one flattened key across the sampled records.
type KeyProfile struct {
	Key           string   `json:"key"`                     // Flattened key (e.g., "address.city", "items[0].sku")
	Type          string   `json:"type"`                    // string, number, boolean, or a "|" union
	Frequency     float64  `json:"frequency"`               // Fraction of sampled records carrying the key (0.0-1.0)
	Present       int      `json:"present"`                 // Sampled records carrying the key
	DistinctCount int      `json:"distinct_count"`          // Distinct display values observed
	DistinctMore  bool     `json:"distinct_more,omitempty"` // DistinctCount stopped at the tracking cap
	Examples      []string `json:"examples"`                // Up to 3 example values, first seen first
	Format        string   `json:"format,omitempty"`        // Detected format: uuid, iso8601, url, email, image, enum
	EnumValues    []string `json:"enum_values,omitempty"`   // All distinct values when format is "enum"
	Visible       bool     `json:"visible"`                 // Visibility flag from the key registry
}

// DatasetProfile summarises the keys of the active dataset.
type DatasetProfile struct {
	SnapshotID string       `json:"snapshot_id"`
	Records    int          `json:"records"`
	Sampled    int          `json:"sampled"`
	Keys       []KeyProfile `json:"keys"`
}

// CSVColumn describes one column of a CSV dataset as read from its cells.
type CSVColumn struct {
	Name           string   `json:"name"`
	Index          int      `json:"index"`                 // Zero-based position in the file
	Type           string   `json:"type"`                  // number, boolean, string, or empty when every cell is blank
	EmptyFrequency float64  `json:"empty_frequency"`       // Fraction of rows with a blank or missing cell
	Examples       []string `json:"examples"`              // Up to 3 distinct non-blank cells
	Format         string   `json:"format,omitempty"`      // Same formats as KeyProfile.Format
	EnumValues     []string `json:"enum_values,omitempty"` // All distinct values when format is "enum"
	Dropped        bool     `json:"dropped,omitempty"`     // Blank header; the column is not part of the records
}

// CSVShape describes how a CSV payload was read.
type CSVShape struct {
	HasHeaders bool        `json:"has_headers"`
	Delimiter  string      `json:"delimiter"`
	Rows       int         `json:"rows"`
	Columns    []CSVColumn `json:"columns"`
}
