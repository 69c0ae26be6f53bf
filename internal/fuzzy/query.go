package fuzzy

import (
	"regexp"
	"strings"
	"unicode"
)

// Operator selects how a query token is compared with a field.
type Operator uint8

const (
	// OpFuzzy is an approximate substring match (plain token).
	OpFuzzy Operator = iota
	// OpInclude requires the token as a substring ('token).
	OpInclude
	// OpExact requires the whole field to equal the token (=token).
	OpExact
	// OpPrefix requires the field to start with the token (^token).
	OpPrefix
	// OpSuffix requires the field to end with the token (token$).
	OpSuffix
	// OpNotInclude rejects fields containing the token (!token).
	OpNotInclude
	// OpNotPrefix rejects fields starting with the token (!^token).
	OpNotPrefix
	// OpNotSuffix rejects fields ending with the token (!token$).
	OpNotSuffix
)

var opNames = [...]string{"fuzzy", "include", "exact", "prefix", "suffix", "not-include", "not-prefix", "not-suffix"}

func (o Operator) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// Inverse reports whether the operator matches by absence.
func (o Operator) Inverse() bool {
	return o >= OpNotInclude
}

// Token is one whitespace-separated term of a query.
type Token struct {
	Op      Operator
	Pattern []rune // case-folded
	Raw     string
}

// MaxErrors returns the largest edit count a fuzzy token can carry and
// still score within threshold. Non-fuzzy tokens allow none.
func (t Token) MaxErrors(threshold float64) int {
	if t.Op != OpFuzzy {
		return 0
	}
	m := len(t.Pattern)
	if threshold >= 1 {
		return m
	}
	if threshold <= 0 {
		return 0
	}
	// e / (m + e) <= threshold is the best score e errors can reach.
	return int(threshold*float64(m)/(1-threshold) + 1e-9)
}

// Group is a set of tokens that must all match one field.
type Group []Token

var orSeparator = regexp.MustCompile(`\s+\|\s+`)

// Parse splits query into OR groups of AND tokens. Double quotes keep
// whitespace inside a token. An empty query yields no groups.
func Parse(query string) []Group {
	var groups []Group
	for _, part := range orSeparator.Split(strings.TrimSpace(query), -1) {
		var g Group
		for _, raw := range splitTokens(part) {
			g = append(g, parseToken(raw))
		}
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// splitTokens splits on whitespace outside double quotes.
func splitTokens(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func parseToken(raw string) Token {
	op, body := OpFuzzy, raw
	switch {
	case strings.HasPrefix(raw, "="):
		op, body = OpExact, raw[1:]
	case strings.HasPrefix(raw, "'"):
		op, body = OpInclude, raw[1:]
	case strings.HasPrefix(raw, "!^"):
		op, body = OpNotPrefix, raw[2:]
	case strings.HasPrefix(raw, "!") && strings.HasSuffix(raw, "$") && len(raw) > 2:
		op, body = OpNotSuffix, raw[1:len(raw)-1]
	case strings.HasPrefix(raw, "!"):
		op, body = OpNotInclude, raw[1:]
	case strings.HasPrefix(raw, "^"):
		op, body = OpPrefix, raw[1:]
	case strings.HasSuffix(raw, "$") && len(raw) > 1:
		op, body = OpSuffix, raw[:len(raw)-1]
	}

	body = unquote(body)
	if body == "" {
		// A bare operator character is searched for literally.
		op, body = OpFuzzy, unquote(raw)
	}
	return Token{Op: op, Pattern: Fold(body), Raw: raw}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Fold lower-cases s rune by rune so offsets in the result line up with
// rune offsets in s.
func Fold(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return out
}
