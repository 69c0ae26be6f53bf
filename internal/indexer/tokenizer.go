package indexer

import (
	"math"
	"strings"
	"unicode"
)

// Tokens splits s on whitespace.
func Tokens(s string) []string {
	return strings.FieldsFunc(s, unicode.IsSpace)
}

// normForCount weighs a field by its length: 1/sqrt(token count), rounded
// to three decimals. Empty text counts as one token.
func normForCount(n int) float64 {
	if n < 1 {
		n = 1
	}
	return math.Round(1/math.Sqrt(float64(n))*1000) / 1000
}

// normCache memoises norms by token count for one column build.
type normCache map[int]float64

func newNormCache() normCache { return make(normCache) }

func (c normCache) get(s string) float64 {
	n := len(Tokens(s))
	if v, ok := c[n]; ok {
		return v
	}
	v := normForCount(n)
	c[n] = v
	return v
}
