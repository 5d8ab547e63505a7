// Package state owns the processing state persisted between scan cycles:
// the tail offset, rotation marker, and the set of already-published
// fingerprints with their tracker issue IDs.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrStateCorrupt indicates the persisted state file exists but cannot be
// read or is internally inconsistent. The orchestrator recovers by treating
// state as empty, accepting the one-time risk of re-filing known issues.
var ErrStateCorrupt = errors.New("processing state corrupt")

// ProcessingState is the persisted structure for one target repository.
// It is an explicit value passed into and returned from each cycle, never a
// process-wide singleton.
type ProcessingState struct {
	Offset         int64             `json:"offset"`
	RotationMarker string            `json:"rotation_marker"`
	Fingerprints   map[string]string `json:"fingerprints"`
}

// NewProcessingState returns an empty state.
func NewProcessingState() *ProcessingState {
	return &ProcessingState{Fingerprints: make(map[string]string)}
}

// IsNew reports whether the fingerprint has not yet been published.
func (ps *ProcessingState) IsNew(fp string) bool {
	_, known := ps.Fingerprints[fp]
	return !known
}

// Record marks a fingerprint as published with its tracker issue ID.
// An empty issueID still marks the fingerprint as known.
func (ps *ProcessingState) Record(fp, issueID string) {
	if ps.Fingerprints == nil {
		ps.Fingerprints = make(map[string]string)
	}
	ps.Fingerprints[fp] = issueID
}

// Store persists ProcessingState as a single human-inspectable JSON file.
// One monitor process owns a given state file at a time; concurrent owners
// are unsupported.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// StatePath returns the state file path for a target repository under dir.
func StatePath(dir, owner, name string) string {
	return filepath.Join(dir, owner+"-"+name+".json")
}

// Load reads the persisted state. A missing file yields a fresh empty state;
// an unreadable or inconsistent file yields ErrStateCorrupt.
func (s *Store) Load() (*ProcessingState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewProcessingState(), nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrStateCorrupt, s.path, err)
	}

	var ps ProcessingState
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("%w: unmarshal %s: %v", ErrStateCorrupt, s.path, err)
	}
	if ps.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", ErrStateCorrupt, ps.Offset)
	}
	if ps.Fingerprints == nil {
		ps.Fingerprints = make(map[string]string)
	}
	return &ps, nil
}

// Save writes the state durably and atomically.
func (s *Store) Save(ps *ProcessingState) error {
	if err := writeJSON(s.path, ps); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// WriteAtomic replaces path with data via a same-directory temp file and
// rename, so a crash mid-save leaves either the previous state or the new
// one, never a torn file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	tmpName = ""
	return nil
}

// writeJSON marshals v indented, so state files stay readable with a pager,
// and writes the result atomically.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	return WriteAtomic(path, data)
}
