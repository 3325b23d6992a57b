// Package main is the pino command: show a notification popup, or update the
// one already on screen for the same session.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	rootCmd := newRootCmd()
	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion(version),
		fang.WithCommit(commit),
	); err != nil {
		os.Exit(1)
	}
}
