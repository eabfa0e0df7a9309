package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/codex-audit/internal/data/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [dir]",
	Short: "Rewrite turn logs into fine-tuning JSONL",
	Long: `convert rewrites every turn-log JSONL file in the given directory (default
the current directory) into a tuning_-prefixed counterpart holding one
fine-tuning example per turn: prompt, response, reasoning, tool traffic, and
the plan state extracted from update_plan calls.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setup()

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		converted, err := convert.ConvertDir(dir)
		if err != nil {
			return err
		}
		if len(converted) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No source .jsonl files found to convert.")
			return nil
		}
		for _, name := range converted {
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s to %s%s\n", name, convert.OutputPrefix, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
