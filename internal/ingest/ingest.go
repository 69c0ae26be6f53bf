// Package ingest turns JSON and CSV payloads into ordered dataset records.
//
// Records carry a stable identity derived once per dataset: the "id" field
// when every element carries a unique primitive id, otherwise "_id" under
// the same condition, otherwise the element's position. Object payloads use
// their property keys.
package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/internal/query"
	"github.com/usestring/fieldscope-mcp/pkg/contenttype"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

var (
	// ErrMalformed is returned when a payload cannot be parsed.
	ErrMalformed = errors.New("malformed input")
	// ErrUnsupportedFormat is returned for payloads that are neither JSON nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyCSV is returned when a CSV payload has no rows.
	ErrEmptyCSV = errors.New("CSV file is empty or invalid")
	// ErrPathNotFound is returned when Options.DataPath does not resolve.
	ErrPathNotFound = flatten.ErrPathNotFound
	// ErrFilter is returned when the jq filter fails on every output.
	ErrFilter = errors.New("filter failed")
)

// IDRule names how record ids were derived.
type IDRule string

const (
	IDRuleField      IDRule = "field:id"
	IDRuleUnderscore IDRule = "field:_id"
	IDRuleKey        IDRule = "key"
	IDRuleIndex      IDRule = "index"
)

// Record is one dataset element with its derived id.
type Record struct {
	ID    string
	Value any
}

// Dataset is the parsed payload in original order.
type Dataset struct {
	Records []Record
	Format  contenttype.Category
	IDRule  IDRule
	// Source describes where the payload came from (path, URL or "inline").
	Source string
	// CSV describes the columns of a CSV payload; nil for JSON.
	CSV *types.CSVShape
}

// Options controls parsing.
type Options struct {
	// DataPath is a dot-separated path to the records inside a JSON payload,
	// e.g. "data.items" or "results[0].rows".
	DataPath string
	// Filter is a jq expression applied to the JSON payload (after DataPath).
	Filter string
	// Delimiter separates CSV fields; 0 means ','.
	Delimiter rune
}

// Parse dispatches on format.
func Parse(data []byte, format contenttype.Category, opts Options) (*Dataset, error) {
	switch format {
	case contenttype.JSON:
		return ParseJSON(data, opts)
	case contenttype.CSV:
		return ParseCSV(data, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
}

// IsInputError reports whether err was caused by the payload or the
// parse options rather than by I/O.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyCSV) ||
		errors.Is(err, ErrPathNotFound) ||
		errors.Is(err, ErrFilter) ||
		errors.Is(err, query.ErrInvalidExpression)
}

// splitPath turns "a.b[2].c" into jsonparser key segments a, b, [2], c.
func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, ".") {
		for seg != "" {
			i := strings.IndexByte(seg, '[')
			switch {
			case i < 0:
				out = append(out, seg)
				seg = ""
			case i > 0:
				out = append(out, seg[:i])
				seg = seg[i:]
			default:
				j := strings.IndexByte(seg, ']')
				if j < 0 {
					out = append(out, seg)
					seg = ""
					continue
				}
				out = append(out, seg[:j+1])
				seg = seg[j+1:]
			}
		}
	}
	return out
}

// Payload is raw dataset bytes plus what is known about their format.
type Payload struct {
	Data        []byte
	ContentType string
	Source      string
	Format      contenttype.Category
}

// NewPayload builds a payload, detecting the format unless format names
// one explicitly ("json" or "csv").
func NewPayload(data []byte, contentType, source, format string) (*Payload, error) {
	p := &Payload{Data: data, ContentType: contentType, Source: source}
	switch f := contenttype.Category(strings.ToLower(strings.TrimSpace(format))); f {
	case contenttype.JSON, contenttype.CSV:
		p.Format = f
	case contenttype.Unknown:
		p.Format = contenttype.Detect(contentType, source, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if !p.Format.Dataset() {
		return nil, ErrUnsupportedFormat
	}
	return p, nil
}

// Parse parses the payload. A CSV delimiter is inferred from the content
// type or file name when opts leaves it unset.
func (p *Payload) Parse(opts Options) (*Dataset, error) {
	if p.Format == contenttype.CSV && opts.Delimiter == 0 {
		opts.Delimiter = contenttype.Delimiter(p.ContentType, p.Source)
	}
	ds, err := Parse(p.Data, p.Format, opts)
	if err != nil {
		return nil, err
	}
	ds.Source = p.Source
	return ds, nil
}
