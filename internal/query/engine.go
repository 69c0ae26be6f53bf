// Package query runs jq expressions over decoded datasets.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
)

// ErrInvalidExpression is returned for expressions that do not parse or compile.
var ErrInvalidExpression = errors.New("invalid jq expression")

// Engine executes jq filters against dataset trees.
type Engine struct {
	maxResults int
}

// NewEngine creates a new query engine. maxResults <= 0 means unlimited.
func NewEngine(maxResults int) *Engine {
	return &Engine{maxResults: maxResults}
}

// Result contains the outputs of a filter run.
type Result struct {
	Values []any    `json:"values"`           // Outputs in emission order
	Errors []string `json:"errors,omitempty"` // Runtime errors (e.g., type mismatch)
}

// Filter runs expression against input, which may be a tree produced by
// flatten.Decode. Outputs are converted back into that tree shape; objects
// produced by jq have their keys sorted.
func (e *Engine) Filter(input any, expression string) (*Result, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Values: make([]any, 0),
	}
	seenErrors := make(map[string]bool)

	iter := code.Run(flatten.Plain(input))
	for {
		if e.maxResults > 0 && len(result.Values) >= e.maxResults {
			break
		}
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, isErr := v.(error); isErr {
			var haltErr *gojq.HaltError
			if errors.As(err, &haltErr) && haltErr.Value() == nil {
				break
			}
			msg := formatJQError(err)
			if !seenErrors[msg] {
				result.Errors = append(result.Errors, msg)
				seenErrors[msg] = true
			}
			continue
		}

		result.Values = append(result.Values, flatten.Normalize(v))
	}

	return result, nil
}

// ValidateExpression checks if a jq expression is valid without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	_, err := compile(expression)
	return err
}

func compile(expression string) (*gojq.Code, error) {
	q, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w at position %d: %v", ErrInvalidExpression, parseErr.Offset, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return code, nil
}

// formatJQError adds a hint to common runtime errors. gojq reports these as
// plain errors, so the hints are picked by message text.
func formatJQError(err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		return fmt.Sprintf("filter halted with: %v", haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this dataset)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}

	return errStr + hint
}
