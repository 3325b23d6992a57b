package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pino/internal/transport"
)

// rootOptions holds the flags of the popup command.
type rootOptions struct {
	title      string
	message    string
	delay      uint64
	session    string
	configPath string
	transport  string
	verbose    bool
}

var logger = slog.Default()

func newRootCmd() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pino",
		Short: "Show a notification popup",
		Long: `pino shows a small notification popup on a Wayland desktop.

Only one popup is visible per session. Running pino again while a popup is
on screen replaces its text and restarts its timer with the new delay,
instead of opening a second window.

Newlines can be written as a literal \n in the title or message.`,
		Example: `  pino -t "Build" -m "Started" -d 5
  pino -t "Build" -m "Passed" -d 2
  pino -s 1 -t "Second session" -m "shown next to the first"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopup(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.title, "title", "t", "", "Popup title (default \"Title\")")
	flags.StringVarP(&opts.message, "message", "m", "", "Popup message")
	flags.Uint64VarP(&opts.delay, "delay", "d", 0, "Seconds before the popup closes, 0 keeps it until clicked (default screen.delay)")
	flags.StringVar(&opts.transport, "transport", "",
		fmt.Sprintf("Single-instance transport %v (default behavior.transport)", transport.ValidKinds()))

	pflags := cmd.PersistentFlags()
	pflags.StringVarP(&opts.session, "session", "s", "", "Session number, popups of different sessions coexist")
	pflags.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: ~/.config/pino/config.toml)")
	pflags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(
		newFontsCmd(),
		newStatusCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// setupLogger configures the global slog logger.
func setupLogger(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
