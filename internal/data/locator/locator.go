package locator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/codex-audit/internal/data/state"
	"github.com/penwyp/codex-audit/internal/util"
)

// ErrSessionNotFound means no transcript exists for the session yet. Callers
// treat this as non-fatal: the runtime may not have flushed the file to disk.
var ErrSessionNotFound = errors.New("session transcript not found")

// Locator maps a session identifier to its transcript path using the cached
// path from the offset store, falling back to a recursive filesystem search.
type Locator struct {
	root string
}

// NewLocator creates a locator searching under the given session-log root.
func NewLocator(root string) *Locator {
	return &Locator{root: root}
}

// Locate returns a readable transcript path for sessionID. A fresh search hit
// is cached in sessions (with offset 0) so the next invocation skips the walk.
func (l *Locator) Locate(sessionID string, sessions map[string]*state.SessionState) (string, error) {
	if cached := sessions[sessionID]; cached != nil && cached.Path != "" {
		if _, err := os.Stat(cached.Path); err == nil {
			return cached.Path, nil
		}
	}

	found, err := l.search(sessionID)
	if err != nil {
		return "", err
	}

	sessions[sessionID] = &state.SessionState{Path: found, Offset: 0}
	return found, nil
}

// search walks the session root for a file named *<sessionID>.jsonl. Session
// identifiers are unique within the root, so the first match wins.
func (l *Locator) search(sessionID string) (string, error) {
	start := time.Now()
	suffix := sessionID + ".jsonl"
	var found string

	err := filepath.Walk(l.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebugf("skip path (error): %s - %v", path, err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(filepath.Base(path), suffix) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search session root %s: %w", l.root, err)
	}

	util.LogDebugf("session search for %s finished in %v (found=%v)", sessionID, time.Since(start), found != "")
	if found == "" {
		return "", ErrSessionNotFound
	}
	return found, nil
}
