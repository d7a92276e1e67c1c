package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glassbox-io/glassbox/internal/tui"
)

var viewerCmd = &cobra.Command{
	Use:     "viewer",
	Aliases: []string{"view"},
	Short:   "Open the interactive live viewer",
	Long: `Viewer opens a terminal UI with a chat transcript and the live
brain log side panel. Requires an interactive terminal.`,
	RunE: runViewer,
}

func runViewer(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("viewer needs an interactive terminal; use 'glassbox chat' instead")
	}

	baseURL, err := EnsureDaemon()
	if err != nil {
		return err
	}
	return tui.Run(baseURL)
}
