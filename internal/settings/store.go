package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/usestring/fieldscope-mcp/internal/keys"
)

// ErrNotPersisted is returned when settings changed in memory but could
// not be written to the settings file.
var ErrNotPersisted = errors.New("settings not saved")

// Store holds the current settings, backed by a JSON file when a path is
// set and by memory otherwise. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	path     string
	current  *Settings
	problems []string
}

// Open loads settings from path. A missing file starts from defaults. A
// file that fails validation is reported by Problems and replaced by
// defaults in memory; it is overwritten on the next change.
func Open(path string) (*Store, error) {
	s := &Store{path: path, current: Defaults()}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	if err := Validate(data); err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			s.problems = vErr.Errors
		} else {
			s.problems = []string{err.Error()}
		}
		slog.Warn("settings file is invalid, using defaults",
			slog.String("path", path),
			slog.Any("problems", s.problems),
		)
		return s, nil
	}

	loaded := Defaults()
	if err := json.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	s.current = loaded.Clone()
	return s, nil
}

// Path returns the backing file, "" for an in-memory store.
func (s *Store) Path() string { return s.path }

// Problems lists validation errors found when the file was opened.
func (s *Store) Problems() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.problems...)
}

// Get returns a copy of the current settings.
func (s *Store) Get() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update applies fn to a copy of the settings, validates and persists the
// result and makes it current. On any error the settings are unchanged.
func (s *Store) Update(fn func(*Settings)) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	fn(next)
	if next.Keys == nil {
		next.Keys = map[string]bool{}
	}
	return s.commitLocked(next)
}

// Patch merges a partial JSON document into the settings. Top-level
// properties replace the current ones, except "keys", whose entries are
// merged one by one (null removes an entry).
func (s *Store) Patch(patch []byte) (*Settings, error) {
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(patch, &changes); err != nil {
		return nil, &ValidationError{Errors: []string{fmt.Sprintf("invalid JSON: %s", err.Error())}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := toDocument(s.current)
	if err != nil {
		return nil, err
	}
	for k, raw := range changes {
		if k == "keys" && !isNull(raw) {
			if err := mergeKeys(doc, raw); err != nil {
				return nil, err
			}
			continue
		}
		doc[k] = raw
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling settings: %w", err)
	}
	if err := Validate(merged); err != nil {
		return nil, err
	}

	next := Defaults()
	if err := json.Unmarshal(merged, next); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return s.commitLocked(next)
}

// MergeKeys adds fields observed in a dataset to the visibility map as
// visible, keeping existing entries. It returns the newly added fields.
// The merge is applied in memory even when the file cannot be written; the
// error then wraps ErrNotPersisted.
func (s *Store) MergeKeys(observed []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := keys.Added(s.current.Keys, observed)
	if len(added) == 0 {
		return nil, nil
	}
	next := s.current.Clone()
	next.Keys = keys.Reconcile(s.current.Keys, observed)
	if err := validateSettings(next); err != nil {
		return nil, err
	}
	s.current = next
	if err := s.persistLocked(next); err != nil {
		return added, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	s.problems = nil
	return added, nil
}

func (s *Store) commitLocked(next *Settings) (*Settings, error) {
	if err := validateSettings(next); err != nil {
		return nil, err
	}
	if err := s.persistLocked(next); err != nil {
		return nil, err
	}
	s.current = next
	s.problems = nil
	return next.Clone(), nil
}

// persistLocked writes next to a temporary file beside the target and
// renames it into place.
func (s *Store) persistLocked(next *Settings) error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

func toDocument(cur *Settings) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(cur)
	if err != nil {
		return nil, fmt.Errorf("marshaling settings: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return doc, nil
}

func mergeKeys(doc map[string]json.RawMessage, raw json.RawMessage) error {
	var patch map[string]*bool
	if err := json.Unmarshal(raw, &patch); err != nil {
		return &ValidationError{Errors: []string{"/keys: expected an object of booleans"}}
	}
	var cur map[string]bool
	if err := json.Unmarshal(doc["keys"], &cur); err != nil || cur == nil {
		cur = map[string]bool{}
	}
	for k, v := range patch {
		if v == nil {
			delete(cur, k)
			continue
		}
		cur[k] = *v
	}
	merged, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("marshaling keys: %w", err)
	}
	doc["keys"] = merged
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
