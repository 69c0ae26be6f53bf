// Package profile summarises the records of a dataset: per-key statistics
// over the flattened fields and a JSON Schema inferred from the originals.
package profile

import (
	"regexp"
	"sort"
	"strings"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

const (
	maxExamples           = 3
	minSamplesForFormat   = 5
	maxEnumDistinctValues = 10
	// maxTrackedDistinct bounds the distinct-value set kept per key.
	maxTrackedDistinct = 10000
)

var (
	uuidRegex    = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	iso8601Regex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2})?)?`)
	urlRegex     = regexp.MustCompile(`^https?://\S+$`)
	imageRegex   = regexp.MustCompile(`(?i)^https?://\S+\.(png|jpe?g|gif|webp|svg|avif)(\?\S*)?$`)
	emailRegex   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Sample returns at most n documents spread evenly over docs, in order.
// n <= 0 returns docs unchanged.
func Sample(docs []*flatten.Document, n int) []*flatten.Document {
	if n <= 0 || len(docs) <= n {
		return docs
	}
	out := make([]*flatten.Document, n)
	for i := range out {
		out[i] = docs[i*len(docs)/n]
	}
	return out
}

// keyAcc accumulates the observations of one key.
type keyAcc struct {
	present  int
	kinds    map[flatten.Kind]bool
	distinct map[string]struct{}
	capped   bool
	examples []string
	strs     []string
}

func (a *keyAcc) add(v flatten.Value) {
	a.present++
	a.kinds[v.Kind()] = true
	text := v.Text()

	if _, seen := a.distinct[text]; !seen {
		if len(a.distinct) < maxTrackedDistinct {
			a.distinct[text] = struct{}{}
			if len(a.examples) < maxExamples && text != "" {
				a.examples = append(a.examples, text)
			}
		} else {
			a.capped = true
		}
	}
	if v.Kind() == flatten.KindString && text != "" {
		a.strs = append(a.strs, text)
	}
}

// Keys profiles every flattened key of docs. Keys are listed in first-seen
// order across docs.
func Keys(docs []*flatten.Document) []types.KeyProfile {
	var order []string
	accs := make(map[string]*keyAcc)
	for _, doc := range docs {
		doc.Fields.Range(func(key string, v flatten.Value) bool {
			acc, ok := accs[key]
			if !ok {
				acc = &keyAcc{
					kinds:    make(map[flatten.Kind]bool, 1),
					distinct: make(map[string]struct{}),
				}
				accs[key] = acc
				order = append(order, key)
			}
			acc.add(v)
			return true
		})
	}

	out := make([]types.KeyProfile, 0, len(order))
	for _, key := range order {
		acc := accs[key]
		p := types.KeyProfile{
			Key:           key,
			Type:          kindNames(acc.kinds),
			Present:       acc.present,
			DistinctCount: len(acc.distinct),
			DistinctMore:  acc.capped,
			Examples:      acc.examples,
		}
		if len(docs) > 0 {
			p.Frequency = float64(acc.present) / float64(len(docs))
		}
		if p.Examples == nil {
			p.Examples = []string{}
		}
		// Format detection only applies to keys that are always strings.
		if p.Type == "string" && len(acc.strs) >= minSamplesForFormat {
			p.Format, p.EnumValues = DetectFormat(acc.strs)
		}
		out = append(out, p)
	}
	return out
}

func kindNames(kinds map[flatten.Kind]bool) string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// DetectFormat classifies string values as uuid, iso8601, image, url, email
// or enum (few distinct values). All values must agree; otherwise the
// format is empty.
func DetectFormat(values []string) (string, []string) {
	if len(values) == 0 {
		return "", nil
	}

	for _, f := range []struct {
		name string
		re   *regexp.Regexp
	}{
		{"uuid", uuidRegex},
		{"iso8601", iso8601Regex},
		{"image", imageRegex},
		{"url", urlRegex},
		{"email", emailRegex},
	} {
		if allMatch(values, f.re) {
			return f.name, nil
		}
	}

	distinct := make(map[string]bool)
	for _, v := range values {
		distinct[v] = true
		if len(distinct) > maxEnumDistinctValues {
			return "", nil
		}
	}
	// Enum values must repeat.
	if len(distinct) == len(values) {
		return "", nil
	}
	enumValues := make([]string, 0, len(distinct))
	for v := range distinct {
		enumValues = append(enumValues, v)
	}
	sort.Strings(enumValues)
	return "enum", enumValues
}

func allMatch(values []string, re *regexp.Regexp) bool {
	for _, v := range values {
		if !re.MatchString(v) {
			return false
		}
	}
	return true
}
