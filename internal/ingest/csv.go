package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/pkg/contenttype"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// floatPattern accepts plain decimal and exponent notation, nothing else
// (no hex, no Inf/NaN, no digit separators).
var floatPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// ParseCSV parses delimited text into one ordered record per row.
//
// The first row is treated as a header when some column's value kind
// (empty, number, string) differs from the second row; otherwise columns
// are named "Column 1", "Column 2", ... Columns with a blank header are
// dropped. Cells holding numbers or true/false are typed. The dataset's
// CSV field describes every column, dropped ones included.
func ParseCSV(data []byte, opts Options) (*Dataset, error) {
	rows, err := readRows(data, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCSV
	}

	first := rows[0]
	var second []string
	if len(rows) > 1 {
		second = rows[1]
	}

	var headers []string
	body := rows
	hasHeaders := detectHeaders(first, second)
	if hasHeaders {
		headers = first
		body = rows[1:]
	} else {
		headers = make([]string, len(first))
		for i := range first {
			headers[i] = "Column " + strconv.Itoa(i+1)
		}
	}

	items := make([]any, len(body))
	for i, row := range body {
		obj := flatten.NewObject()
		for col, header := range headers {
			if col >= len(row) || strings.TrimSpace(header) == "" {
				continue
			}
			obj.Set(header, typeCell(row[col]))
		}
		items[i] = obj
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	records, rule := fromArray(items)
	return &Dataset{
		Records: records,
		Format:  contenttype.CSV,
		IDRule:  rule,
		CSV: &types.CSVShape{
			HasHeaders: hasHeaders,
			Delimiter:  string(delimiter),
			Rows:       len(body),
			Columns:    describeColumns(headers, body),
		},
	}, nil
}

func readRows(data []byte, delimiter rune) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	if delimiter != 0 {
		r.Comma = delimiter
	}
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: error parsing CSV file: %v", ErrMalformed, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// detectHeaders reports whether first looks like a header row. A lone row
// is data; a second row shorter than the first implies a header.
func detectHeaders(first, second []string) bool {
	if second == nil {
		return false
	}
	for i, cell := range first {
		if i >= len(second) || cellKind(cell) != cellKind(second[i]) {
			return true
		}
	}
	return false
}

func cellKind(s string) string {
	switch {
	case s == "":
		return "empty"
	case isBoolText(s), strings.TrimSpace(s) == "", floatPattern.MatchString(s):
		return "number"
	}
	return "string"
}

// typeCell converts numbers and booleans; everything else stays text.
func typeCell(s string) any {
	switch s {
	case "true", "TRUE", "True":
		return true
	case "false", "FALSE", "False":
		return false
	}
	if floatPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return s
}

func isBoolText(s string) bool {
	switch s {
	case "true", "TRUE", "True", "false", "FALSE", "False":
		return true
	}
	return false
}
