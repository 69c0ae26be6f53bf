// Package keys tracks the set of field names seen across a dataset and
// reconciles them with the persisted per-field visibility map.
package keys

import (
	"sort"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
)

// Summary describes the fields observed in a set of documents.
type Summary struct {
	// UniqueKeys is the sorted union of every flattened key.
	UniqueKeys []string
	// FirstKey is the first key of the first document, "" when there is none.
	FirstKey string
}

// Collect gathers the distinct flattened keys of docs.
func Collect(docs []*flatten.Document) Summary {
	seen := make(map[string]struct{})
	var s Summary
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		keys := doc.Fields.Keys()
		if i == 0 && len(keys) > 0 {
			s.FirstKey = keys[0]
		}
		for _, k := range keys {
			seen[k] = struct{}{}
		}
	}

	s.UniqueKeys = make([]string, 0, len(seen))
	for k := range seen {
		s.UniqueKeys = append(s.UniqueKeys, k)
	}
	sort.Strings(s.UniqueKeys)
	return s
}

// Reconcile returns a copy of existing with every observed key that is not
// yet present added as visible. Existing entries keep their value and keys
// that are no longer observed are retained.
func Reconcile(existing map[string]bool, observed []string) map[string]bool {
	out := make(map[string]bool, len(existing)+len(observed))
	for k, v := range existing {
		out[k] = v
	}
	for _, k := range observed {
		if _, ok := out[k]; !ok {
			out[k] = true
		}
	}
	return out
}

// Added reports which observed keys Reconcile would introduce, in order.
func Added(existing map[string]bool, observed []string) []string {
	var added []string
	for _, k := range observed {
		if _, ok := existing[k]; !ok {
			added = append(added, k)
		}
	}
	return added
}

// Visible filters keys down to the ones marked visible. Keys unknown to the
// map are shown.
func Visible(visibility map[string]bool, keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if show, ok := visibility[k]; ok && !show {
			continue
		}
		out = append(out, k)
	}
	return out
}
