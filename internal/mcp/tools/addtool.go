package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking that its input and output types
// survive the SDK's schema inference. Problems surface at startup instead
// of on the first call with an empty dataset.
//
// Panics with a message naming the offending field.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckInputSchema[In](t.Name)
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// CheckInputSchema panics if T cannot serve as a tool input: a field carries
// a `jsonschema:"key=value"` tag meant for reflector-based schema libraries,
// which the SDK rejects as a malformed description.
func CheckInputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	var bad []string
	walkFields(rt, func(path string, f reflect.StructField) bool {
		if tag, ok := f.Tag.Lookup("jsonschema"); ok && keyValueTag.MatchString(tag) {
			bad = append(bad, path)
		}
		return true
	})
	if len(bad) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: input type %s has key=value jsonschema tags at %s\n"+
				"  the SDK reads the tag as a plain description\n"+
				"  Fix: use a description tag, or expose the type as any via types.ToAny",
			toolName, rt, strings.Join(bad, ", "),
		))
	}
}

// keyValueTag matches tags such as "enum=a,enum=b" or "minimum=1".
var keyValueTag = regexp.MustCompile(`^\w+=`)

// CheckOutputSchema validates that the zero value of T passes the JSON
// schema the SDK infers from it.
//
// json.Marshal writes nil slices and maps as null, while the SDK infers
// "array" or "object" from the Go type; add omitzero or omitempty to such
// fields or initialize them. json.RawMessage fields are rejected too: they
// serialize as arbitrary JSON but are inferred as an array of integers.
//
// No-ops for the untyped "any" output or if schema inference itself fails
// (the SDK reports those separately).
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	elem := rt
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}

	if paths := findRawMessageFields(elem); len(paths) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: output type %s contains json.RawMessage at %s\n"+
				"  Fix: change the field type to any (or []any) and fill it with types.ToAny",
			toolName, elem, strings.Join(paths, ", "),
		))
	}

	data, err := zeroValueProblem(elem)
	if err != nil {
		panic(fmt.Sprintf(
			"AddTool %q: zero value of output type %s fails schema validation: %v\n"+
				"  JSON: %s\n"+
				"  Fix: add `omitzero` to nil-defaulting slice and map fields, or initialize them",
			toolName, elem, err, data,
		))
	}
}

// zeroValueProblem validates the JSON of t's zero value against the schema
// inferred for t. It returns the JSON alongside any validation error.
func zeroValueProblem(t reflect.Type) ([]byte, error) {
	schema, err := jsonschema.ForType(t, &jsonschema.ForOptions{})
	if err != nil {
		return nil, nil
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, nil
	}

	data, err := json.Marshal(reflect.Zero(t).Interface())
	if err != nil {
		return nil, nil
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, nil
	}
	return data, resolved.Validate(&v)
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// findRawMessageFields returns the paths of json.RawMessage values in t.
func findRawMessageFields(t reflect.Type) []string {
	if deref(t) == rawMessageType {
		return []string{""}
	}
	var found []string
	walkFields(t, func(path string, f reflect.StructField) bool {
		if deref(f.Type) == rawMessageType || elemIsRaw(f.Type) {
			found = append(found, path)
			return false
		}
		return true
	})
	return found
}

func elemIsRaw(t reflect.Type) bool {
	t = deref(t)
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return deref(t.Elem()) == rawMessageType
	}
	return false
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// walkFields visits the exported struct fields reachable from t, through
// pointers, slices, arrays and map values. visit returns false to skip a
// field's subtree. Recursive types are visited once per path.
func walkFields(t reflect.Type, visit func(path string, f reflect.StructField) bool) {
	var walk func(t reflect.Type, path string, seen map[reflect.Type]bool)
	walk = func(t reflect.Type, path string, seen map[reflect.Type]bool) {
		t = deref(t)
		switch t.Kind() {
		case reflect.Slice, reflect.Array:
			if t != rawMessageType {
				walk(t.Elem(), path+"[]", seen)
			}
			return
		case reflect.Map:
			walk(t.Elem(), path+"[value]", seen)
			return
		case reflect.Struct:
		default:
			return
		}
		if seen[t] {
			return
		}
		seen[t] = true
		defer delete(seen, t)

		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			fp := f.Name
			if path != "" {
				fp = path + "." + f.Name
			}
			if visit(fp, f) {
				walk(f.Type, fp, seen)
			}
		}
	}
	walk(t, "", make(map[reflect.Type]bool))
}
