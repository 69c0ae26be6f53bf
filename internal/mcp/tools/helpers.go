// Package tools contains MCP tool implementations for fieldscope.
package tools

import (
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// MIME type constant.
const MimeJSON = "application/json"

// Highlight markers used when a caller asks for marked-up match text.
const (
	MarkOpen  = "[["
	MarkClose = "]]"
)

// RecordURIPrefix is the resource URI prefix of a single record.
const RecordURIPrefix = "fieldscope://record/"

// Static resource URIs.
const (
	KeysURI   = "fieldscope://keys"
	SchemaURI = "fieldscope://schema"
)

// printer formats counts in hints ("12,345 records").
var printer = message.NewPrinter(language.English)

// RecordURI returns the resource URI of the record with the given id.
func RecordURI(id string) string {
	return RecordURIPrefix + url.PathEscape(id)
}

// RecordHit is one ranked record as returned by the search tools.
type RecordHit struct {
	ID         string             `json:"id"`
	Position   int                `json:"position"`
	Score      float64            `json:"score"`
	Fields     map[string]any     `json:"fields,omitempty"`
	Matches    []types.FieldMatch `json:"matches,omitempty"`
	Highlights map[string]string  `json:"highlights,omitempty"`
}

// Highlight wraps the inclusive rune ranges of spans in value with the open
// and close markers. Ranges are clipped to value; touching or overlapping
// ranges share one pair of markers.
func Highlight(value string, spans []types.Span, openMark, closeMark string) string {
	if len(spans) == 0 {
		return value
	}
	runes := []rune(value)
	sorted := slices.Clone(spans)
	slices.SortFunc(sorted, func(a, b types.Span) int { return a.Start - b.Start })

	merged := sorted[:0]
	for _, sp := range sorted {
		sp.Start = max(sp.Start, 0)
		sp.End = min(sp.End, len(runes)-1)
		if sp.Start > sp.End {
			continue
		}
		if n := len(merged); n > 0 && sp.Start <= merged[n-1].End+1 {
			merged[n-1].End = max(merged[n-1].End, sp.End)
			continue
		}
		merged = append(merged, sp)
	}

	var sb strings.Builder
	pos := 0
	for _, sp := range merged {
		sb.WriteString(string(runes[pos:sp.Start]))
		sb.WriteString(openMark)
		sb.WriteString(string(runes[sp.Start : sp.End+1]))
		sb.WriteString(closeMark)
		pos = sp.End + 1
	}
	sb.WriteString(string(runes[pos:]))
	return sb.String()
}

// toHits converts engine results for output. Fields are included when
// withFields is set; highlights when marks is set.
func (d *Deps) toHits(results []types.MatchResult, withFields, marks bool) []RecordHit {
	hits := make([]RecordHit, len(results))
	for i, r := range results {
		hit := RecordHit{
			ID:       r.ID,
			Position: r.Position,
			Score:    r.Score,
			Matches:  r.Matches,
		}
		if withFields {
			hit.Fields = d.VisibleFields(r.Record)
		}
		if marks && len(r.Matches) > 0 {
			hit.Highlights = make(map[string]string, len(r.Matches))
			for _, m := range r.Matches {
				hit.Highlights[m.Field] = Highlight(m.Value, m.Spans, MarkOpen, MarkClose)
			}
		}
		hits[i] = hit
	}
	return hits
}

// countNoun renders n with a singular or plural noun.
func countNoun(n int, singular, plural string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, singular)
	}
	return printer.Sprintf("%d %s", n, plural)
}
