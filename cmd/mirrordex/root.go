// Package main provides the entry point for the mirrordex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for mirrordex.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirrordex",
		Short: "Mirror auto-generated directory listings to a local tree",
		Long: `Mirrordex mirrors auto-generated "Index of" directory listings
(Apache autoindex and compatible servers) into a local directory tree.

The crawl is checkpointed: interrupt a run at any point and re-run the
same command to continue where it stopped. Already downloaded files are
never fetched twice.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewMirrorCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
