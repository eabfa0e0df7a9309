package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/codex-audit/internal/audit"
	"github.com/penwyp/codex-audit/internal/config"
	"github.com/penwyp/codex-audit/internal/core/session"
)

// debounceWindow coalesces a burst of transcript writes into one ingest. The
// ingest fires after the transcript has been quiet for the window, so the
// final write of a burst is never dropped.
const debounceWindow = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the session root and record turns as transcripts grow",
	Long: `watch tails the session-log root with fsnotify and runs the same one-shot
ingest as the notify hook whenever a transcript is written. Useful for
runtimes without a notify callback. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := setup()
		ingestor := audit.NewIngestor(paths)

		// The runtime creates the session root lazily; watching needs it now.
		if err := config.EnsureDir(paths.SessionsDir); err != nil {
			return fmt.Errorf("create session root %s: %w", paths.SessionsDir, err)
		}

		watcher, err := session.NewFileWatcher(paths.SessionsDir)
		if err != nil {
			return fmt.Errorf("watch %s: %w", paths.SessionsDir, err)
		}
		defer watcher.Close()

		debouncer := session.NewDebouncer(debounceWindow)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", paths.SessionsDir)

		for {
			select {
			case <-ctx.Done():
				return nil
			case path := <-debouncer.Ready():
				ingestor.ProcessSessionFile(path)
			case event, ok := <-watcher.Events():
				if !ok {
					return nil
				}
				debouncer.Observe(event.Path)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
