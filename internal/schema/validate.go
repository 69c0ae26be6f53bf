// Package schema validates JSON documents against schemas reflected from
// Go types.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result is the outcome of a validation.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator validates JSON data against a schema.
type Validator struct {
	source *invopop.Schema
	schema *jsonschema.Schema
}

// Reflect builds a JSON Schema for the type of v. Struct fields without
// omitempty are required and unknown properties are rejected.
func Reflect(v any) *invopop.Schema {
	r := &invopop.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.Reflect(v)
}

// NewValidator creates a validator for the type of v.
func NewValidator(v any) (*Validator, error) {
	return NewValidatorFromSchema(Reflect(v))
}

// NewValidatorFromSchema compiles a reflected schema.
func NewValidatorFromSchema(s *invopop.Schema) (*Validator, error) {
	// Convert to JSON and back to get a clean map[string]any
	schemaJSON, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var schemaValue any
	if err := json.Unmarshal(schemaJSON, &schemaValue); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()

	// Add the schema as a resource (doc must be valid json value, not io.Reader)
	if err := compiler.AddResource("schema.json", schemaValue); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{source: s, schema: compiled}, nil
}

// Validate validates a JSON document against the schema.
func (v *Validator) Validate(data []byte) *Result {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &Result{
			Valid:  false,
			Errors: []string{fmt.Sprintf("invalid JSON: %s", err.Error())},
		}
	}
	return v.ValidateValue(value)
}

// ValidateValue validates an already-parsed value (encoding/json shapes).
func (v *Validator) ValidateValue(value any) *Result {
	if v == nil || v.schema == nil {
		return &Result{
			Valid:  false,
			Errors: []string{"schema not compiled"},
		}
	}

	err := v.schema.Validate(value)
	if err == nil {
		return &Result{Valid: true}
	}

	return &Result{
		Valid:  false,
		Errors: extractValidationErrors(err),
	}
}

// Schema returns the reflected schema, e.g. for publishing to clients.
func (v *Validator) Schema() *invopop.Schema {
	return v.source
}

// extractValidationErrors extracts human-readable error messages from a validation error.
func extractValidationErrors(err error) []string {
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractDetailedErrors(validationErr)
	}

	return []string{err.Error()}
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// extractDetailedErrors flattens a ValidationError into "path: message"
// lines, deduplicated and sorted.
func extractDetailedErrors(err *jsonschema.ValidationError) []string {
	errorsByPath := make(map[string][]string)
	collectErrors(err, errorsByPath)

	var result []string
	for path, msgs := range errorsByPath {
		seen := make(map[string]bool)
		for _, msg := range msgs {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	sort.Strings(result)
	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		// $ref and schema reference messages say nothing about the data.
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
