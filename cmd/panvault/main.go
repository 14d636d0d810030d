package main

import (
	"fmt"
	"os"

	"github.com/panvault-dev/panvault/internal/commands"
	"github.com/panvault-dev/panvault/internal/model"
)

// Exit codes distinguish the failure classes callers script against.
const (
	exitOK          = 0
	exitFailure     = 1
	exitValidation  = 2
	exitSignature   = 3
	exitPersistence = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := commands.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch model.KindOf(err) {
		case model.KindValidationFailed:
			return exitValidation
		case model.KindSignatureInvalid:
			return exitSignature
		case model.KindPersistenceFailed:
			return exitPersistence
		default:
			return exitFailure
		}
	}
	return exitOK
}
