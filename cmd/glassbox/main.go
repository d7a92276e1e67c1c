// Package main is the entry point for the glassbox CLI/TUI.
package main

import (
	"os"

	"github.com/glassbox-io/glassbox/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
