// Package settings holds the display settings of the explorer and persists
// them as a JSON document.
package settings

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/usestring/fieldscope-mcp/internal/schema"
)

// Thumbnail types.
const (
	ThumbnailPlainText = "plain-text"
	ThumbnailImage     = "image"
)

// Layouts lists the accepted layout names.
var Layouts = []string{
	"Grid View", "List View", "Detail View", "Card View",
	"Table View", "Compact View", "Tile View",
}

// Settings is the persisted settings document.
type Settings struct {
	ThumbnailKey  string `json:"thumbnailKey"`
	ThumbnailType string `json:"thumbnailType" jsonschema:"enum=plain-text,enum=image"`
	ShowKey       bool   `json:"showKey"`
	Layout        string `json:"layout" jsonschema:"enum=Grid View,enum=List View,enum=Detail View,enum=Card View,enum=Table View,enum=Compact View,enum=Tile View"`
	// SearchKey scopes search to one field; null or "" means all fields.
	SearchKey *string         `json:"searchKey" jsonschema:"nullable"`
	Theme     string          `json:"theme" jsonschema:"minLength=1"`
	Keys      map[string]bool `json:"keys"`
}

// Defaults returns the settings used before anything is stored.
func Defaults() *Settings {
	return &Settings{
		ThumbnailType: ThumbnailPlainText,
		ShowKey:       true,
		Layout:        "Grid View",
		Theme:         "Light",
		Keys:          map[string]bool{},
	}
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	out := *s
	if s.SearchKey != nil {
		k := *s.SearchKey
		out.SearchKey = &k
	}
	out.Keys = maps.Clone(s.Keys)
	if out.Keys == nil {
		out.Keys = map[string]bool{}
	}
	return &out
}

// SearchField returns the scoped field, "" for all fields.
func (s *Settings) SearchField() string {
	if s == nil || s.SearchKey == nil {
		return ""
	}
	return *s.SearchKey
}

// SetSearchField scopes search to field; "" clears the scope.
func (s *Settings) SetSearchField(field string) {
	if field == "" {
		s.SearchKey = nil
		return
	}
	s.SearchKey = &field
}

// ValidationError lists every problem found in a settings document.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Errors, "; ")
}

var validator = sync.OnceValues(func() (*schema.Validator, error) {
	return schema.NewValidator(&Settings{})
})

// Validate checks a complete settings document.
func Validate(data []byte) error {
	v, err := validator()
	if err != nil {
		return fmt.Errorf("building settings schema: %w", err)
	}
	if res := v.Validate(data); !res.Valid {
		return &ValidationError{Errors: res.Errors}
	}
	return nil
}

// validateSettings validates s as it would be written.
func validateSettings(s *Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	return Validate(data)
}
