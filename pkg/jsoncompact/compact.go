// Package jsoncompact shrinks JSON records for display by trimming arrays,
// long strings and deep nesting. Ordered objects keep their key order.
package jsoncompact

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Options controls JSON compaction behavior.
type Options struct {
	MaxArrayItems int // Trim arrays to N items (0 = no limit)
	MaxStringLen  int // Truncate strings longer than N runes (0 = no limit)
	MaxDepth      int // Max recursion depth (0 = unlimited)
}

// Default values for compaction options.
const (
	DefaultMaxArrayItems = 3
	DefaultMaxStringLen  = 500
	DefaultMaxDepth      = 0 // unlimited
)

// DefaultOptions returns the default compaction settings.
func DefaultOptions() *Options {
	return &Options{
		MaxArrayItems: DefaultMaxArrayItems,
		MaxStringLen:  DefaultMaxStringLen,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Compact compresses JSON bytes by trimming arrays and strings.
// Returns error if input is not valid JSON.
// If opts is nil, DefaultOptions() is used.
func Compact(data []byte, opts *Options) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return json.Marshal(CompactValue(v, opts))
}

// CompactValue compresses a decoded JSON value. Plain maps and
// *orderedmap.OrderedMap[string, any] are both accepted; the result keeps
// the container type of the input.
// If opts is nil, DefaultOptions() is used.
func CompactValue(v any, opts *Options) any {
	if opts == nil {
		opts = DefaultOptions()
	}
	return compactRecursive(v, opts, 0)
}

func compactRecursive(v any, opts *Options, depth int) any {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return "[max depth]"
	}

	switch val := v.(type) {
	case []any:
		return compactArray(val, opts, depth)
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, item := range val {
			result[k] = compactRecursive(item, opts, depth+1)
		}
		return result
	case *orderedmap.OrderedMap[string, any]:
		if val == nil {
			return nil
		}
		result := orderedmap.New[string, any]()
		for p := val.Oldest(); p != nil; p = p.Next() {
			result.Set(p.Key, compactRecursive(p.Value, opts, depth+1))
		}
		return result
	case string:
		return compactString(val, opts)
	default:
		return v
	}
}

func compactString(s string, opts *Options) string {
	if opts.MaxStringLen <= 0 || utf8.RuneCountInString(s) <= opts.MaxStringLen {
		return s
	}
	// Cut on a rune boundary.
	cut, n := 0, 0
	for i := range s {
		if n == opts.MaxStringLen {
			cut = i
			break
		}
		n++
	}
	remaining := utf8.RuneCountInString(s[cut:])
	return s[:cut] + fmt.Sprintf("... (%d more chars)", remaining)
}

func compactArray(arr []any, opts *Options, depth int) []any {
	if len(arr) == 0 {
		return arr
	}

	// If no limit or within limit, just recurse into elements
	if opts.MaxArrayItems <= 0 || len(arr) <= opts.MaxArrayItems {
		result := make([]any, len(arr))
		for i, item := range arr {
			result[i] = compactRecursive(item, opts, depth+1)
		}
		return result
	}

	// Trim array and add indicator
	result := make([]any, opts.MaxArrayItems+1)
	for i := 0; i < opts.MaxArrayItems; i++ {
		result[i] = compactRecursive(arr[i], opts, depth+1)
	}
	remaining := len(arr) - opts.MaxArrayItems
	result[opts.MaxArrayItems] = fmt.Sprintf("... (%d more items)", remaining)
	return result
}
