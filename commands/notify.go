package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/codex-audit/internal/audit"
	"github.com/penwyp/codex-audit/internal/util"
)

var notifyCmd = &cobra.Command{
	Use:   "notify <payload>",
	Short: "Record one turn from a runtime notification",
	Long: `notify is the entry point the agent runtime invokes once per turn with a
single JSON payload argument. It must never disturb the runtime: every error
path is recorded to the diagnostics log and the command still exits 0.`,
	// The payload is opaque; a garbled one may start with "-" and must not be
	// mistaken for a flag (which would fail the command and break exit 0).
	DisableFlagParsing: true,
	Args:               cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		paths := setup()
		if len(args) != 1 {
			util.LogErrorf("notify hook requires exactly 1 argument, got %d", len(args))
			return
		}
		audit.NewIngestor(paths).ProcessPayload(args[0])
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
