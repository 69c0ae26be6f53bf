package ingest

import (
	"fmt"
	"os"
)

// ReadFile reads a local dataset. format forces "json" or "csv"; empty
// detects it from the extension, then the content.
func ReadFile(path, format string, maxBytes int64) (*Payload, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading dataset file: %s is a directory", path)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}
	return NewPayload(data, "", path, format)
}
