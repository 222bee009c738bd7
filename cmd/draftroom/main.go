package main

import (
	"os"

	"github.com/DoyleJ11/draftroom/cmd/draftroom/commands"
)

// Version information - set during build
var version = "dev"

func main() {
	// Errors are printed by Execute with color formatting
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
