package ingest

import (
	"strings"

	"github.com/usestring/fieldscope-mcp/internal/profile"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// maxColumnSampleRows bounds the rows read when describing CSV columns.
const maxColumnSampleRows = 1000

// describeColumns reports the type, blank rate and format of every column
// from the raw cells of at most maxColumnSampleRows rows.
func describeColumns(headers []string, rows [][]string) []types.CSVColumn {
	if len(rows) > maxColumnSampleRows {
		rows = rows[:maxColumnSampleRows]
	}
	cols := make([]types.CSVColumn, len(headers))
	for i, name := range headers {
		cols[i] = describeColumn(name, i, rows)
	}
	return cols
}

func describeColumn(name string, idx int, rows [][]string) types.CSVColumn {
	col := types.CSVColumn{
		Name:     name,
		Index:    idx,
		Type:     "empty",
		Examples: []string{},
		Dropped:  strings.TrimSpace(name) == "",
	}

	var values []string
	kinds := make(map[string]bool)
	seen := make(map[string]bool)
	empty := 0
	for _, row := range rows {
		if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
			empty++
			continue
		}
		kinds[cellType(row[idx])] = true
		v := strings.TrimSpace(row[idx])
		values = append(values, v)
		if !seen[v] && len(col.Examples) < 3 {
			seen[v] = true
			col.Examples = append(col.Examples, v)
		}
	}
	if len(rows) > 0 {
		col.EmptyFrequency = float64(empty) / float64(len(rows))
	}
	if len(values) == 0 {
		return col
	}

	col.Type = "string"
	if len(kinds) == 1 {
		for k := range kinds {
			col.Type = k
		}
	}
	if col.Type == "string" && len(values) >= 5 {
		col.Format, col.EnumValues = profile.DetectFormat(values)
	}
	return col
}

// cellType names the type typeCell gives a non-blank cell.
func cellType(s string) string {
	switch typeCell(s).(type) {
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return "string"
}
