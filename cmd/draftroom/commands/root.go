package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cyan  = color.New(color.FgCyan, color.Bold)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed, color.Bold)
)

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "draftroom",
		Short: "Draftroom - live turn-based draft server",
		Long: `Draftroom runs a single live draft: participants take turns claiming
items from a shared pool over a websocket, with pause, undo and a
replayable history.`,
		Version: version,
		// If no subcommand is specified, show help
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newServeCmd(), newOrderCmd(), newTokenCmd())
	return root
}

// Execute runs the CLI and prints any error in red on stderr.
func Execute(version string) error {
	err := NewRootCmd(version).Execute()
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

func printError(w io.Writer, err error) {
	red.Fprintf(w, "error: ")
	fmt.Fprintln(w, err)
}
