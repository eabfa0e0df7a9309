package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Paths holds every filesystem location the audit pipeline touches. All
// fields are absolute; zero-config defaults hang off CODEX_HOME.
type Paths struct {
	CodexHome     string // agent runtime home, CODEX_HOME or ~/.codex
	SessionsDir   string // transcript search root (<home>/sessions)
	AuditDir      string // audit state and logs (<home>/audit)
	TurnLogPath   string // global append-only turn log
	StatePath     string // per-session offset store
	ErrorLogPath  string // plain-text diagnostics
	ExportDir     string // secondary mirror of the turn log
	ExportPrefix  string // filename prefix used in the mirror copy
	SessionLogDir string // per-session turn logs
}

// DefaultPaths resolves the standard layout from the CODEX_HOME environment
// variable, defaulting to ~/.codex.
func DefaultPaths() Paths {
	codexHome := os.Getenv("CODEX_HOME")
	if codexHome == "" {
		home, _ := os.UserHomeDir()
		codexHome = filepath.Join(home, ".codex")
	}
	return PathsFor(codexHome)
}

// PathsFor resolves the standard layout under an explicit runtime home. The
// export and session-log directories live under ~/Documents so they survive
// a runtime reinstall.
func PathsFor(codexHome string) Paths {
	home, _ := os.UserHomeDir()
	codexHome = ExpandPath(codexHome)

	auditDir := filepath.Join(codexHome, "audit")
	return Paths{
		CodexHome:     codexHome,
		SessionsDir:   filepath.Join(codexHome, "sessions"),
		AuditDir:      auditDir,
		TurnLogPath:   filepath.Join(auditDir, "turn_log.jsonl"),
		StatePath:     filepath.Join(auditDir, "state.json"),
		ErrorLogPath:  filepath.Join(auditDir, "errors.log"),
		ExportDir:     filepath.Join(home, "Documents", "llm_agent_logs"),
		ExportPrefix:  "codex",
		SessionLogDir: filepath.Join(home, "Documents", "codex-logs"),
	}
}

// ExpandPath expands a leading ~/ and normalizes to an absolute path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
