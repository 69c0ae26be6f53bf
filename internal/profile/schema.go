package profile

import (
	"math"
	"sort"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
)

// node accumulates every value observed at one position of the record tree.
type node struct {
	types   map[string]int
	objects int
	props   *orderedmap.OrderedMap[string, *node]
	items   *node
}

func newNode() *node {
	return &node{types: make(map[string]int, 1)}
}

func (n *node) add(v any) {
	switch val := v.(type) {
	case nil:
		n.types["null"]++
	case bool:
		n.types["boolean"]++
	case string:
		n.types["string"]++
	case float64:
		if math.Trunc(val) == val && !math.IsInf(val, 0) {
			n.types["integer"]++
		} else {
			n.types["number"]++
		}
	case *flatten.Object:
		if val == nil {
			n.types["null"]++
			return
		}
		n.types["object"]++
		n.objects++
		if n.props == nil {
			n.props = orderedmap.New[string, *node]()
		}
		for p := val.Oldest(); p != nil; p = p.Next() {
			child, ok := n.props.Get(p.Key)
			if !ok {
				child = newNode()
				n.props.Set(p.Key, child)
			}
			child.add(p.Value)
		}
	case map[string]any:
		n.add(flatten.Normalize(val))
	case []any:
		n.types["array"]++
		if len(val) > 0 && n.items == nil {
			n.items = newNode()
		}
		for _, item := range val {
			n.items.add(item)
		}
	default:
		if f, ok := flatten.ValueOf(val); ok {
			n.add(f.Interface())
		}
	}
}

// schema renders the accumulated observations. Properties keep the order
// they were first seen in.
func (n *node) schema() *jsonschema.Schema {
	names := make([]string, 0, len(n.types))
	for t := range n.types {
		names = append(names, t)
	}
	// integer widens to number when both occur
	if n.types["integer"] > 0 && n.types["number"] > 0 {
		names = removeName(names, "integer")
	}
	sort.Strings(names)

	if len(names) == 1 {
		return n.typed(names[0])
	}
	anyOf := make([]*jsonschema.Schema, 0, len(names))
	for _, t := range names {
		anyOf = append(anyOf, n.typed(t))
	}
	return &jsonschema.Schema{AnyOf: anyOf}
}

func (n *node) typed(t string) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: t}
	switch t {
	case "object":
		s.Properties = jsonschema.NewProperties()
		if n.props == nil {
			return s
		}
		for p := n.props.Oldest(); p != nil; p = p.Next() {
			s.Properties.Set(p.Key, p.Value.schema())
			// Required means present in every object and never null.
			if p.Value.seen() == n.objects && p.Value.types["null"] == 0 {
				s.Required = append(s.Required, p.Key)
			}
		}
	case "array":
		if n.items != nil {
			s.Items = n.items.schema()
		}
	}
	return s
}

func (n *node) seen() int {
	total := 0
	for _, c := range n.types {
		total += c
	}
	return total
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// InferSchema builds a JSON Schema (Draft 2020-12) describing the original
// values of docs. An empty docs yields an empty schema.
func InferSchema(docs []*flatten.Document) *jsonschema.Schema {
	if len(docs) == 0 {
		return &jsonschema.Schema{}
	}
	root := newNode()
	for _, doc := range docs {
		root.add(doc.Source)
	}
	s := root.schema()
	s.Version = jsonschema.Version
	return s
}
