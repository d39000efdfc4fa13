package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relight-dev/relight/internal/errors"
	"github.com/relight-dev/relight/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┬  ┬┌─┐┬ ┬┌┬┐
  ├┬┘├┤ │  ││ ┬├─┤ │
  ┴└─└─┘┴─┘┴└─┘┴ ┴ ┴
`

func main() {
	var (
		logLevel string
		logJSON  bool
	)

	rootCmd := &cobra.Command{
		Use:   "relight",
		Short: "Watch-mode build orchestrator with live reload",
		Long: `Relight compiles your app, watches it for changes, and reloads
connected browsers after every successful rebuild.

Features:
  • One rebuild per burst of file changes
  • Live-reload broadcast over WebSocket
  • Dev server that reloads the built bundle without restarting
  • Clean teardown of build artifacts on exit`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Config{Level: logLevel, JSON: logJSON})
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit JSON logs")

	rootCmd.AddCommand(
		devCmd(),
		buildCmd(),
		createCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatError(err))
		os.Exit(1)
	}
}

// printBanner prints the relight ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
