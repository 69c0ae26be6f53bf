// Package flatten turns arbitrary JSON values into single-level field maps
// keyed by dot/bracket paths, the searchable shape used by the index.
package flatten

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the primitive carried by a Value.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "string"
	}
}

// Value is a flattened leaf: a string, a number or a boolean.
// The zero Value behaves as the empty string.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a number Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the primitive kind. The zero Value reports KindString.
func (v Value) Kind() Kind {
	if v.kind == 0 {
		return KindString
	}
	return v.kind
}

// Str returns the string payload; empty for non-string values.
func (v Value) Str() string { return v.str }

// Num returns the number payload; zero for non-number values.
func (v Value) Num() float64 { return v.num }

// Text renders the value the way it is displayed and matched.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// Interface returns the value as a plain Go primitive.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return v.str
	}
}

// MarshalJSON encodes the value as its JSON primitive.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

// FormatNumber renders a float with the shortest round-trip digits, using
// exponent form outside [1e-6, 1e21).
func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ValueOf converts a decoded JSON primitive into a Value.
// ok is false for objects and arrays.
func ValueOf(raw any) (Value, bool) {
	switch v := raw.(type) {
	case nil:
		return String(""), true
	case string:
		return String(v), true
	case bool:
		return Bool(v), true
	case float64:
		return Number(v), true
	case float32:
		return Number(float64(v)), true
	case int:
		return Number(float64(v)), true
	case int64:
		return Number(float64(v)), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return String(v.String()), true
		}
		return Number(f), true
	case Value:
		return v, true
	default:
		return Value{}, false
	}
}
