package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// diagnosticTimeFormat matches the error-log line convention consumed by the
// log viewer: "[ISO-8601 timestamp] message".
const diagnosticTimeFormat = time.RFC3339

func formatEntry(entry LogEntry) string {
	line := fmt.Sprintf("[%s] %s", entry.Timestamp.Format(diagnosticTimeFormat), entry.Message)
	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		line += " " + strings.Join(parts, " ")
	}
	return line
}

// ConsoleOutput writes logs to stderr for interactive debugging
type ConsoleOutput struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewConsoleOutput creates a new console output
func NewConsoleOutput() Output {
	return &ConsoleOutput{writer: os.Stderr}
}

// Write writes a log entry to console
func (c *ConsoleOutput) Write(entry LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.writer, "%s [%s] %s\n",
		entry.Timestamp.Format("15:04:05"), entry.Level, entry.Message)
	return err
}

// Close closes the console output
func (c *ConsoleOutput) Close() error {
	return nil
}

// FileOutput appends diagnostic lines to the error log. The parent directory
// is created on demand so the hook works on a fresh install.
type FileOutput struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileOutput creates a new file output
func NewFileOutput(path string) (Output, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &FileOutput{file: file}, nil
}

// Write writes a log entry to file
func (f *FileOutput) Write(entry LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, err := fmt.Fprintln(f.file, formatEntry(entry))
	return err
}

// Close closes the file
func (f *FileOutput) Close() error {
	return f.file.Close()
}
