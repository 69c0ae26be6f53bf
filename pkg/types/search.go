package types

// SearchRequest contains parameters for a search query.
type SearchRequest struct {
	Query  string // Free text query, extended syntax
	Field  string // Restrict matching to one flattened field ("" = all)
	Limit  int    // Max fuzzy results, default 1000
	Offset int    // Pagination offset into the ranked results
}

// Span is an inclusive range of rune offsets into a field's display text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FieldMatch lists the highlighted spans of one matching field.
type FieldMatch struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Spans []Span `json:"spans"`
}

// MatchResult is one ranked record. Score 0 is a perfect match; records
// returned without a query carry Score 0 and no Matches.
type MatchResult struct {
	ID       string         `json:"id"`
	Position int            `json:"position"`
	Score    float64        `json:"score"`
	Record   map[string]any `json:"record"`
	Matches  []FieldMatch   `json:"matches,omitempty"`
}

// SearchResponse contains the search results.
type SearchResponse struct {
	Results []MatchResult `json:"results"`
	Total   int           `json:"total"`
	Mode    string        `json:"mode"`
}
