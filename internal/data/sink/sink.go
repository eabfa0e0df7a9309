package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/penwyp/codex-audit/internal/config"
	"github.com/penwyp/codex-audit/internal/core/model"
	"github.com/penwyp/codex-audit/internal/util"
)

// Sink appends sealed turn records to the global audit log and the
// per-session log, and mirrors the global log into the export directory.
// No cross-invocation locking is performed: different sessions write to
// disjoint per-session files, and the calling runtime serializes turns
// within a session.
type Sink struct {
	turnLogPath   string
	exportDir     string
	exportPrefix  string
	sessionLogDir string
}

// NewSink creates a sink for the configured audit layout.
func NewSink(paths config.Paths) *Sink {
	return &Sink{
		turnLogPath:   paths.TurnLogPath,
		exportDir:     paths.ExportDir,
		exportPrefix:  paths.ExportPrefix,
		sessionLogDir: paths.SessionLogDir,
	}
}

// Append durably writes record as one JSON line to the global turn log,
// refreshes the export mirror, then appends the same line to the session's
// own log.
func (s *Sink) Append(sessionID string, record *model.TurnRecord) error {
	line, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode turn record: %w", err)
	}

	if err := appendLine(s.turnLogPath, line); err != nil {
		return fmt.Errorf("append turn log: %w", err)
	}
	if err := s.mirrorTurnLog(); err != nil {
		return fmt.Errorf("mirror turn log: %w", err)
	}
	if err := appendLine(s.SessionLogPath(sessionID), line); err != nil {
		return fmt.Errorf("append session log: %w", err)
	}
	return nil
}

// SessionLogPath derives the per-session log location from a sanitized copy
// of the session identifier.
func (s *Sink) SessionLogPath(sessionID string) string {
	return filepath.Join(s.sessionLogDir, util.SanitizeFilename(sessionID)+".jsonl")
}

// appendLine writes one JSONL record and fsyncs before closing, so a crash
// right after Append still leaves a complete line on disk.
func appendLine(path string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return err
	}
	return file.Sync()
}

// mirrorTurnLog copies the global turn log into the export directory under a
// prefixed name. The copy is a full-file snapshot, matching the append-only
// source line for line.
func (s *Sink) mirrorTurnLog() error {
	source, err := os.Open(s.turnLogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer source.Close()

	if err := os.MkdirAll(s.exportDir, 0755); err != nil {
		return err
	}
	destPath := filepath.Join(s.exportDir, s.exportPrefix+"_"+filepath.Base(s.turnLogPath))
	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	if _, err := io.Copy(dest, source); err != nil {
		return err
	}
	return dest.Sync()
}
