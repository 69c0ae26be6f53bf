package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/internal/query"
	"github.com/usestring/fieldscope-mcp/pkg/contenttype"
)

var filterEngine = query.NewEngine(0)

// ValidateFilter reports whether expr compiles as a jq filter. An empty
// expression is valid.
func ValidateFilter(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	return filterEngine.ValidateExpression(expr)
}

// ParseJSON parses a JSON payload into records. Arrays give one record per
// element, objects one record per property and a lone primitive a single
// record. Non-object values are wrapped as {"value": x}.
func ParseJSON(data []byte, opts Options) (*Dataset, error) {
	root, err := decodeRoot(data, opts.DataPath)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(opts.Filter) != "" {
		root, err = applyFilter(root, opts.Filter)
		if err != nil {
			return nil, err
		}
	}

	records, rule := fromValue(root)
	return &Dataset{
		Records: records,
		Format:  contenttype.JSON,
		IDRule:  rule,
	}, nil
}

func decodeRoot(data []byte, dataPath string) (any, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	var (
		v   any
		err error
	)
	if p := strings.TrimSpace(dataPath); p != "" {
		v, err = flatten.DecodePath(data, splitPath(p)...)
	} else {
		v, err = flatten.Decode(data)
	}
	if errors.Is(err, flatten.ErrMalformed) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, err
}

// applyFilter runs a jq filter. A single output becomes the new root,
// several outputs become an array.
func applyFilter(root any, expr string) (any, error) {
	res, err := filterEngine.Filter(root, expr)
	if err != nil {
		return nil, err
	}
	if len(res.Values) == 0 && len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrFilter, res.Errors[0])
	}
	if len(res.Values) == 1 {
		return res.Values[0], nil
	}
	return res.Values, nil
}

func fromValue(root any) ([]Record, IDRule) {
	switch v := root.(type) {
	case []any:
		return fromArray(v)
	case *flatten.Object:
		if v == nil {
			break
		}
		records := make([]Record, 0, v.Len())
		for p := v.Oldest(); p != nil; p = p.Next() {
			records = append(records, Record{ID: p.Key, Value: wrap(p.Value)})
		}
		return records, IDRuleKey
	}
	return []Record{{ID: "0", Value: wrap(root)}}, IDRuleIndex
}

func fromArray(items []any) ([]Record, IDRule) {
	ids, rule := deriveIDs(items)
	records := make([]Record, len(items))
	for i, item := range items {
		records[i] = Record{ID: ids[i], Value: wrap(item)}
	}
	return records, rule
}

// wrap keeps objects as they are and boxes anything else.
func wrap(v any) any {
	if obj, ok := v.(*flatten.Object); ok && obj != nil {
		return obj
	}
	obj := flatten.NewObject()
	obj.Set("value", v)
	return obj
}
