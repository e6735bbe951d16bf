// Package cli implements the arbuild command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// Version is the arbuild release, set at link time.
var Version = "dev"

// NewRootCommand returns the arbuild command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "arbuild",
		Short: "Assemble static library archives",
		Long: `arbuild assembles static library archives (.a) for GNU and Darwin linkers.

It seeds an archive from an existing library, removes and replaces members,
appends object files and merges other libraries, then writes the result with
deterministic metadata and a symbol table.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(newBuildCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
