package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

type profile struct {
	Name  string          `json:"name"`
	Age   int             `json:"age"`
	Tier  string          `json:"tier" jsonschema:"enum=free,enum=pro"`
	Tags  map[string]bool `json:"tags,omitempty"`
	Email *string         `json:"email,omitempty"`
}

func TestValidator_Reflected(t *testing.T) {
	validator, err := NewValidator(&profile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Valid data
	result := validator.Validate([]byte(`{"name": "Alice", "age": 30, "tier": "pro", "tags": {"a": true}}`))
	if !result.Valid {
		t.Errorf("expected valid, got errors: %v", result.Errors)
	}

	// Invalid data - missing required field
	result = validator.Validate([]byte(`{"age": 30, "tier": "free"}`))
	if result.Valid {
		t.Error("expected invalid for missing required field")
	}

	// Invalid data - wrong type
	result = validator.Validate([]byte(`{"name": "Alice", "age": "thirty", "tier": "free"}`))
	if result.Valid {
		t.Error("expected invalid for wrong type")
	}

	// Invalid data - value outside the enum
	result = validator.Validate([]byte(`{"name": "Alice", "age": 30, "tier": "gold"}`))
	if result.Valid {
		t.Error("expected invalid for enum mismatch")
	}

	// Invalid data - unknown property
	result = validator.Validate([]byte(`{"name": "Alice", "age": 30, "tier": "free", "extra": 1}`))
	if result.Valid {
		t.Error("expected invalid for unknown property")
	}

	// Invalid data - map value type
	result = validator.Validate([]byte(`{"name": "Alice", "age": 30, "tier": "free", "tags": {"a": "yes"}}`))
	if result.Valid {
		t.Error("expected invalid for non-boolean map value")
	}
}

func TestValidator_InvalidJSON(t *testing.T) {
	validator, err := NewValidator(&profile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := validator.Validate([]byte(`{"name":`))
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "invalid JSON") {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
}

func TestValidator_NilValidator(t *testing.T) {
	var v *Validator
	result := v.ValidateValue(map[string]any{})
	if result.Valid {
		t.Error("expected a nil validator to reject everything")
	}
}

func TestReflect_Shape(t *testing.T) {
	s := Reflect(&profile{})
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != "object" {
		t.Errorf("expected type object, got %v", m["type"])
	}
	if _, ok := m["$defs"]; ok {
		t.Error("expected an inlined schema without $defs")
	}

	required, _ := m["required"].([]any)
	got := make(map[string]bool)
	for _, r := range required {
		got[r.(string)] = true
	}
	for _, want := range []string{"name", "age", "tier"} {
		if !got[want] {
			t.Errorf("expected %q to be required, got %v", want, required)
		}
	}
	if got["email"] || got["tags"] {
		t.Errorf("omitempty fields must be optional, got %v", required)
	}
}

func TestValidationErrorMessages_HumanReadable(t *testing.T) {
	tests := []struct {
		name           string
		data           string
		wantContains   []string // error messages should contain these
		wantNotContain []string // error messages should NOT contain these (raw Go structs)
	}{
		{
			name: "type mismatch - string expected",
			data: `{"name": 123, "age": 1, "tier": "free"}`,
			wantContains: []string{
				"/name",
				"string",
			},
			wantNotContain: []string{
				"&{", // raw Go struct
				"file:///",
				"$ref",
			},
		},
		{
			name: "type mismatch - integer expected",
			data: `{"name": "a", "age": "twenty", "tier": "free"}`,
			wantContains: []string{
				"/age",
				"integer",
			},
			wantNotContain: []string{
				"&{",
				"file:///",
			},
		},
		{
			name: "missing required property",
			data: `{"age": 1, "tier": "free"}`,
			wantContains: []string{
				"name",
			},
			wantNotContain: []string{
				"&{",
				"file:///",
			},
		},
		{
			name: "null where integer expected",
			data: `{"name": "a", "age": null, "tier": "free"}`,
			wantContains: []string{
				"integer",
			},
			wantNotContain: []string{
				"&{null [integer]}",
				"&{",
			},
		},
	}

	validator, err := NewValidator(&profile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.Validate([]byte(tt.data))
			if result.Valid {
				t.Fatal("expected validation to fail")
			}

			allErrors := strings.Join(result.Errors, "\n")
			for _, want := range tt.wantContains {
				if !strings.Contains(allErrors, want) {
					t.Errorf("expected errors to contain %q, got:\n%s", want, allErrors)
				}
			}
			for _, notWant := range tt.wantNotContain {
				if strings.Contains(allErrors, notWant) {
					t.Errorf("expected errors NOT to contain %q, got:\n%s", notWant, allErrors)
				}
			}
		})
	}
}
