package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_FuzzyWithSpans(t *testing.T) {
	m := New("jon", DefaultThreshold)

	res, ok := m.Match("John Doe")
	require.True(t, ok)
	assert.InDelta(t, 0.25, res.Score, 1e-9)
	assert.Equal(t, []Span{{Start: 0, End: 1}, {Start: 3, End: 3}}, res.Spans)

	_, ok = m.Match("Jane Smith")
	assert.False(t, ok)
}

func TestMatch_ExactSubstringScoresZero(t *testing.T) {
	m := New("cam", DefaultThreshold)
	res, ok := m.Match("Camera cam")
	require.True(t, ok)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, []Span{{Start: 0, End: 2}, {Start: 7, End: 9}}, res.Spans)
}

func TestMatch_CaseInsensitiveNonASCII(t *testing.T) {
	m := New("ÆRØ", DefaultThreshold)
	res, ok := m.Match("flyÆrø")
	require.True(t, ok)
	assert.Equal(t, []Span{{Start: 3, End: 5}}, res.Spans)
}

func TestMatch_EmptyTextNeverMatches(t *testing.T) {
	_, ok := New("abc", DefaultThreshold).Match("")
	assert.False(t, ok)
}

func TestMatch_ThresholdZeroIsSubstringOnly(t *testing.T) {
	m := New("jon", 0)
	_, ok := m.Match("John")
	assert.False(t, ok)
	_, ok = m.Match("Jonas")
	assert.True(t, ok)
}

func TestMatch_ScoreOrdersCloserMatches(t *testing.T) {
	m := New("pythn", 0.4)
	exact, ok := m.Match("pythn")
	require.True(t, ok)
	near, ok := m.Match("Python")
	require.True(t, ok)
	assert.Less(t, exact.Score, near.Score)
}

func TestMatch_Operators(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  bool
		spans []Span
	}{
		{"include", "'era", "Camera", true, []Span{{3, 5}}},
		{"include miss", "'xyz", "Camera", false, nil},
		{"exact", "=camera", "Camera", true, []Span{{0, 5}}},
		{"exact miss", "=cam", "Camera", false, nil},
		{"prefix", "^cam", "Camera", true, []Span{{0, 2}}},
		{"prefix miss", "^era", "Camera", false, nil},
		{"suffix", "era$", "Camera", true, []Span{{3, 5}}},
		{"not include", "!tri", "Camera", true, nil},
		{"not include miss", "!cam", "Camera", false, nil},
		{"not prefix", "!^era", "Camera", true, nil},
		{"not suffix", "!cam$", "Camera", true, nil},
		{"not suffix miss", "!era$", "Camera", false, nil},
		{"quoted", `'"o d"`, "Leo Doe", true, []Span{{2, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := New(tt.query, DefaultThreshold).Match(tt.text)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, tt.spans, res.Spans)
			}
		})
	}
}

func TestMatch_AndTokens(t *testing.T) {
	m := New("john doe", DefaultThreshold)
	res, ok := m.Match("John Doe")
	require.True(t, ok)
	assert.Equal(t, []Span{{0, 3}, {5, 7}}, res.Spans)

	_, ok = m.Match("John Smith")
	assert.False(t, ok)
}

func TestMatch_OrGroups(t *testing.T) {
	m := New("^tri | =camera", DefaultThreshold)
	_, ok := m.Match("Tripod")
	assert.True(t, ok)
	_, ok = m.Match("camera")
	assert.True(t, ok)
	_, ok = m.Match("Lens")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	groups := Parse(`  ^foo "bar baz"  | !qux$ `)
	require.Len(t, groups, 2)
	require.Len(t, groups[0], 2)
	assert.Equal(t, OpPrefix, groups[0][0].Op)
	assert.Equal(t, []rune("foo"), groups[0][0].Pattern)
	assert.Equal(t, OpFuzzy, groups[0][1].Op)
	assert.Equal(t, []rune("bar baz"), groups[0][1].Pattern)
	assert.Equal(t, OpNotSuffix, groups[1][0].Op)
	assert.Equal(t, []rune("qux"), groups[1][0].Pattern)

	assert.Empty(t, Parse("   "))
}

func TestParse_BareOperatorIsLiteral(t *testing.T) {
	groups := Parse("$")
	require.Len(t, groups, 1)
	assert.Equal(t, OpFuzzy, groups[0][0].Op)
	assert.Equal(t, []rune("$"), groups[0][0].Pattern)
}

func TestMaxErrors(t *testing.T) {
	tok := Token{Op: OpFuzzy, Pattern: []rune("jon")}
	assert.Equal(t, 1, tok.MaxErrors(0.25))
	assert.Equal(t, 0, tok.MaxErrors(0))
	assert.Equal(t, 3, tok.MaxErrors(1))
	assert.Equal(t, 0, Token{Op: OpInclude, Pattern: []rune("jon")}.MaxErrors(0.25))
}

func TestToSpans(t *testing.T) {
	assert.Nil(t, toSpans(nil))
	assert.Equal(t, []Span{{0, 2}, {5, 5}}, toSpans([]int{2, 0, 1, 1, 5}))
}
