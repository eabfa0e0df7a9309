package main

import (
	"os"

	"github.com/penwyp/codex-audit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
