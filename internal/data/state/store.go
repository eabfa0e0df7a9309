package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/penwyp/codex-audit/internal/util"
)

// SessionState records how far into a transcript the pipeline has read.
// Offset is monotonically non-decreasing per session.
type SessionState struct {
	Path   string `json:"path"`
	Offset int64  `json:"offset"`
}

// Store persists the session -> SessionState map across invocations. The
// file is a resume optimization: losing it only causes already-summarized
// bytes to be re-processed (and therefore duplicate turn records), never
// data loss.
type Store struct {
	path string
}

// NewStore creates a store backed by the given state file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

type stateFile struct {
	Sessions map[string]*SessionState `json:"sessions"`
}

// Load reads the state file. A missing, corrupt or unparsable file is
// fail-open: it logs a diagnostic and returns an empty map.
func (s *Store) Load() map[string]*SessionState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			util.LogErrorf("cannot read state file %s: %v", s.path, err)
		}
		return make(map[string]*SessionState)
	}

	var parsed stateFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		util.LogErrorf("state file %s is corrupted; recreating: %v", s.path, err)
		return make(map[string]*SessionState)
	}
	if parsed.Sessions == nil {
		return make(map[string]*SessionState)
	}
	return parsed.Sessions
}

// Save atomically replaces the state file: the new content is written to a
// temporary file in the same directory, then renamed over the real file, so
// a crash mid-write never leaves a half-written store.
func (s *Store) Save(sessions map[string]*SessionState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(stateFile{Sessions: sessions}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write state temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
