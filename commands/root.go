package commands

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/penwyp/codex-audit/internal/config"
	"github.com/penwyp/codex-audit/internal/util"
)

var (
	// Logging related
	debug bool

	// Path overrides
	codexHome     string
	exportDir     string
	sessionLogDir string

	rootCmd = &cobra.Command{
		Use:   "codex-audit",
		Short: "Turn-level audit logging for Codex sessions",
		Long: `codex-audit mirrors an agent runtime's session transcripts into durable,
structured audit records.

Register "codex-audit notify" as the runtime's notify hook: on every turn it
tails the session transcript from the last recorded byte offset, folds the new
events into one turn record, and appends it to the global and per-session
audit logs.

Examples:
  codex-audit notify '{"thread-id":"0192..."}'   # invoked by the runtime per turn
  codex-audit watch                              # poll-free tailing via fsnotify
  codex-audit convert ~/Documents/codex-logs     # emit fine-tuning JSONL`,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&codexHome, "codex-home", "",
		"Runtime home directory (default $CODEX_HOME or ~/.codex)")
	rootCmd.PersistentFlags().StringVar(&exportDir, "export-dir", "",
		"Override the turn-log mirror directory")
	rootCmd.PersistentFlags().StringVar(&sessionLogDir, "session-log-dir", "",
		"Override the per-session log directory")
}

// setup resolves the path layout and initializes the global logger. The
// diagnostics log stays warn-and-above so it only ever carries problems.
func setup() config.Paths {
	paths := config.DefaultPaths()
	if codexHome != "" {
		paths = config.PathsFor(codexHome)
	}
	if exportDir != "" {
		paths.ExportDir = config.ExpandPath(exportDir)
	}
	if sessionLogDir != "" {
		paths.SessionLogDir = config.ExpandPath(sessionLogDir)
	}

	logLevel := "warn"
	if debug {
		logLevel = "debug"
	}
	debugToConsole := debug && term.IsTerminal(int(os.Stderr.Fd()))
	util.InitLogger(logLevel, paths.ErrorLogPath, debugToConsole)

	return paths
}

func Execute() error {
	return rootCmd.Execute()
}
