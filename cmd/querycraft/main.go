// Package main is the entry point for the querycraft CLI.
package main

import (
	"os"

	"github.com/satishbabariya/querycraft/cmd/querycraft/commands"
	"github.com/satishbabariya/querycraft/internal/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}
