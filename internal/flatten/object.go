package flatten

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrMalformed is returned when input is not syntactically valid JSON.
	ErrMalformed = errors.New("malformed JSON")
	// ErrPathNotFound is returned by DecodePath when the path does not resolve.
	ErrPathNotFound = errors.New("data path not found")
)

// Object is a JSON object that keeps its keys in document order.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Decode parses JSON into a tree of *Object, []any, string, float64, bool
// and nil, keeping object keys in the order they appear in the document.
func Decode(data []byte) (any, error) {
	if !json.Valid(data) {
		return nil, ErrMalformed
	}
	raw, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decodeValue(raw, typ)
}

// DecodePath decodes only the value found at the given key path.
// Array elements are addressed with "[i]" segments, as jsonparser expects.
func DecodePath(data []byte, path ...string) (any, error) {
	if !json.Valid(data) {
		return nil, ErrMalformed
	}
	raw, typ, _, err := jsonparser.Get(data, path...)
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, strings.Join(path, "."))
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decodeValue(raw, typ)
}

func decodeValue(raw []byte, typ jsonparser.ValueType) (any, error) {
	switch typ {
	case jsonparser.Object:
		obj := NewObject()
		err := jsonparser.ObjectEach(raw, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
			v, err := decodeValue(value, vt)
			if err != nil {
				return err
			}
			obj.Set(string(key), v)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return obj, nil

	case jsonparser.Array:
		items := make([]any, 0)
		var itemErr error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, vt jsonparser.ValueType, _ int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			v, err := decodeValue(value, vt)
			if err != nil {
				itemErr = err
				return
			}
			items = append(items, v)
		})
		if err == nil {
			err = itemErr
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return items, nil

	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return s, nil

	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(raw)
		if err != nil {
			// Out-of-range literals still have a float approximation.
			bf, _, perr := big.ParseFloat(string(raw), 10, 64, big.ToNearestEven)
			if perr != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			f, _ = bf.Float64()
		}
		return f, nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return b, nil

	case jsonparser.Null:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unexpected value type %s", ErrMalformed, typ)
}

// Normalize converts values produced by encoding/json or gojq
// (map[string]any, ints) into the ordered tree Decode produces.
// Plain maps have no order, so their keys are sorted.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, Normalize(val[k]))
		}
		return obj
	case *Object:
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case *big.Int:
		f, _ := new(big.Float).SetInt(val).Float64()
		return f
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	default:
		return v
	}
}

// Plain converts the ordered tree back into encoding/json shaped values.
func Plain(v any) any {
	switch val := v.(type) {
	case *Object:
		out := make(map[string]any, val.Len())
		for p := val.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = Plain(p.Value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Plain(item)
		}
		return out
	default:
		return v
	}
}
