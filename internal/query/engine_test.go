package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	v, err := flatten.Decode([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestEngine_Filter_Simple(t *testing.T) {
	engine := NewEngine(0)

	result, err := engine.Filter(decode(t, `{"name": "John", "age": 30}`), ".name")
	require.NoError(t, err)
	assert.Equal(t, []any{"John"}, result.Values)
	assert.Empty(t, result.Errors)
}

func TestEngine_Filter_Iterate(t *testing.T) {
	engine := NewEngine(0)

	input := decode(t, `{"items": [{"name": "a"}, {"name": "b"}, {"name": "c"}]}`)
	result, err := engine.Filter(input, ".items[].name")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, result.Values)
}

func TestEngine_Filter_ObjectsComeBackOrdered(t *testing.T) {
	engine := NewEngine(0)

	input := decode(t, `{"items": [{"zeta": 1, "alpha": 2}]}`)
	result, err := engine.Filter(input, ".items[0]")
	require.NoError(t, err)
	require.Len(t, result.Values, 1)

	obj, ok := result.Values[0].(*flatten.Object)
	require.True(t, ok)
	var keys []string
	for p := obj.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"alpha", "zeta"}, keys)
	v, _ := obj.Get("zeta")
	assert.Equal(t, float64(1), v)
}

func TestEngine_Filter_Select(t *testing.T) {
	engine := NewEngine(0)

	input := decode(t, `[{"status": "active", "name": "a"}, {"status": "inactive", "name": "b"}, {"status": "active", "name": "c"}]`)
	result, err := engine.Filter(input, `[.[] | select(.status == "active") | .name]`)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"a", "c"}}, result.Values)
}

func TestEngine_Filter_MaxResults(t *testing.T) {
	engine := NewEngine(3)

	result, err := engine.Filter(decode(t, `[1, 2, 3, 4, 5]`), ".[]")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, result.Values)
}

func TestEngine_Filter_InvalidExpression(t *testing.T) {
	engine := NewEngine(0)

	_, err := engine.Filter(decode(t, `{}`), ".name[")
	require.ErrorIs(t, err, ErrInvalidExpression)
}

func TestEngine_Filter_RuntimeErrorHint(t *testing.T) {
	engine := NewEngine(0)

	result, err := engine.Filter(decode(t, `{"a": null}`), ".a[]")
	require.NoError(t, err)
	assert.Empty(t, result.Values)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "the path may not exist")
}

func TestEngine_Filter_Halt(t *testing.T) {
	engine := NewEngine(0)

	result, err := engine.Filter(decode(t, `[1, 2]`), ".[0], halt")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1)}, result.Values)
	assert.Empty(t, result.Errors)
}

func TestEngine_ValidateExpression(t *testing.T) {
	engine := NewEngine(0)

	assert.NoError(t, engine.ValidateExpression(".items[] | .id"))
	assert.ErrorIs(t, engine.ValidateExpression(".items[]["), ErrInvalidExpression)
	assert.ErrorIs(t, engine.ValidateExpression("undefined_fn(1)"), ErrInvalidExpression)
}
