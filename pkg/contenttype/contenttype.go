// Package contenttype decides which dataset format a payload carries from
// its content-type header, its file name, or its first bytes.
package contenttype

import (
	"bytes"
	"mime"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON    Category = "json"
	CSV     Category = "csv"
	Text    Category = "text"
	Binary  Category = "binary"
	Unknown Category = ""
)

// Dataset reports whether the category is a format datasets are read from.
func (c Category) Dataset() bool {
	return c == JSON || c == CSV
}

// Classify returns the broad content category for a content-type header value.
// Uses mime.ParseMediaType to strip parameters (charset, boundary, etc.)
// before matching. Falls back to strings.ToLower for malformed values.
// Returns Unknown for empty content-type strings.
func Classify(contentType string) Category {
	if contentType == "" {
		return Unknown
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	// application/json, application/vnd.*+json, anything containing "json"
	case strings.Contains(mediaType, "json"):
		return JSON
	// text/csv, application/csv, text/tab-separated-values
	case strings.HasSuffix(mediaType, "/csv") || mediaType == "text/tab-separated-values":
		return CSV
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "audio/"),
		strings.HasPrefix(mediaType, "video/"),
		strings.Contains(mediaType, "pdf"),
		strings.Contains(mediaType, "zip"):
		return Binary
	}
	// octet-stream and friends say nothing about the payload.
	return Unknown
}

// FromExtension classifies a file path or URL by its extension.
func FromExtension(name string) Category {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" && u.Path != "" {
		name = u.Path
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".geojson":
		return JSON
	case ".csv", ".tsv":
		return CSV
	case ".txt":
		return Text
	}
	return Unknown
}

// Sniff guesses the category from the payload itself: a leading '{' or '['
// means JSON, other valid UTF-8 is treated as CSV.
func Sniff(data []byte) Category {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return Unknown
	}
	if !utf8.Valid(trimmed) {
		return Binary
	}
	switch trimmed[0] {
	case '{', '[':
		return JSON
	}
	return CSV
}

// Detect picks the dataset format for a payload. An explicit dataset
// content type wins, then the file extension, then sniffing.
func Detect(contentType, name string, data []byte) Category {
	if c := Classify(contentType); c.Dataset() {
		return c
	}
	if c := FromExtension(name); c.Dataset() {
		return c
	}
	return Sniff(data)
}

// Delimiter returns the field separator implied by a content type or file
// name: tab for TSV, comma otherwise.
func Delimiter(contentType, name string) rune {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "text/tab-separated-values" {
		return '\t'
	}
	if strings.EqualFold(path.Ext(name), ".tsv") {
		return '\t'
	}
	return ','
}
