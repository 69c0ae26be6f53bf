package flatten

import (
	"encoding/json"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fields is an insertion-ordered map from flattened key to leaf value.
type Fields struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewFields returns an empty field map.
func NewFields() *Fields {
	return &Fields{m: orderedmap.New[string, Value]()}
}

// Set stores v under key. Re-setting a key keeps its original position.
func (f *Fields) Set(key string, v Value) {
	f.m.Set(key, v)
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	return f.m.Get(key)
}

// Len returns the number of keys.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return f.m.Len()
}

// Keys returns the keys in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	keys := make([]string, 0, f.m.Len())
	for p := f.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Range calls fn for each pair in order until fn returns false.
func (f *Fields) Range(fn func(key string, v Value) bool) {
	if f == nil {
		return
	}
	for p := f.m.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// Map returns the fields as plain Go values.
func (f *Fields) Map() map[string]any {
	out := make(map[string]any, f.Len())
	f.Range(func(k string, v Value) bool {
		out[k] = v.Interface()
		return true
	})
	return out
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f.m)
}

// Flatten converts value into a single-level map. Object properties are
// joined with "." onto prefix; an array stores the ", "-joined text of its
// elements under prefix and additionally flattens each object element under
// "prefix[i]". Empty objects and arrays produce no keys. A primitive is
// stored under prefix as is. At the root
// (empty prefix) only containers contribute keys, and a root array is
// walked like an object keyed by element index.
func Flatten(value any, prefix string) *Fields {
	out := NewFields()
	flattenInto(out, value, prefix)
	return out
}

func flattenInto(out *Fields, value any, prefix string) {
	switch v := value.(type) {
	case *Object:
		if v == nil {
			setLeaf(out, prefix, nil)
			return
		}
		for p := v.Oldest(); p != nil; p = p.Next() {
			flattenInto(out, p.Value, joinKey(prefix, p.Key))
		}
	case map[string]any:
		flattenInto(out, Normalize(v), prefix)
	case []any:
		if prefix == "" {
			for i, item := range v {
				flattenInto(out, item, strconv.Itoa(i))
			}
			return
		}
		if len(v) == 0 {
			return
		}
		out.Set(prefix, String(joinArray(v, ", ")))
		for i, item := range v {
			switch item.(type) {
			case *Object, map[string]any:
				flattenInto(out, item, prefix+"["+strconv.Itoa(i)+"]")
			}
		}
	default:
		setLeaf(out, prefix, value)
	}
}

func setLeaf(out *Fields, prefix string, raw any) {
	if prefix == "" {
		return
	}
	if v, ok := ValueOf(raw); ok {
		out.Set(prefix, v)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// joinArray renders an array the way String(x) renders array elements.
func joinArray(items []any, sep string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case *Object, map[string]any:
			parts[i] = "[object Object]"
		case []any:
			parts[i] = joinArray(v, ",")
		default:
			if val, ok := ValueOf(v); ok {
				parts[i] = val.Text()
			}
		}
	}
	return strings.Join(parts, sep)
}
