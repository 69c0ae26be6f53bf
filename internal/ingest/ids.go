package ingest

import (
	"strconv"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
)

// deriveIDs picks one id rule for the whole slice so every record is
// identified the same way.
func deriveIDs(items []any) ([]string, IDRule) {
	if ids, ok := idsFromField(items, "id"); ok {
		return ids, IDRuleField
	}
	if ids, ok := idsFromField(items, "_id"); ok {
		return ids, IDRuleUnderscore
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = strconv.Itoa(i)
	}
	return ids, IDRuleIndex
}

// idsFromField succeeds when every item is an object whose field holds a
// non-empty primitive and no two items share it.
func idsFromField(items []any, field string) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}
	ids := make([]string, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		obj, ok := item.(*flatten.Object)
		if !ok || obj == nil {
			return nil, false
		}
		raw, ok := obj.Get(field)
		if !ok || raw == nil {
			return nil, false
		}
		v, ok := flatten.ValueOf(raw)
		if !ok {
			return nil, false
		}
		id := v.Text()
		if id == "" {
			return nil, false
		}
		if _, dup := seen[id]; dup {
			return nil, false
		}
		seen[id] = struct{}{}
		ids[i] = id
	}
	return ids, true
}
