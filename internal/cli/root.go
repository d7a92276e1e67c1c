// Package cli implements the glassbox CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "glassbox",
	Short: "Chat with the explainable assistant and watch it think",
	Long: `Glassbox talks to a local daemon that answers questions about a
codebase and a profile, streaming every internal action it takes — tool
calls, validations, timings — as a live brain log alongside the answer.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(viewerCmd)
}
