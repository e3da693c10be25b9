// Package main is the entry point for the mcpsync CLI.
package main

import (
	"os"

	"github.com/thoreinstein/mcpsync/cmd/mcpsync/commands"
	"github.com/thoreinstein/mcpsync/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		exitErr := errors.FromKind(err)
		commands.PrintError(os.Stderr, exitErr)
		os.Exit(exitErr.Code)
	}
}
