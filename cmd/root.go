// Package cmd defines and implements the CLI commands for the rankwatch
// executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rankwatch",
		Short: "Watches a web ranking page and reports new titles.",
		Long: `rankwatch polls the Webnovel Monthly Power Rank page, compares the
current title list against the last persisted snapshot, and sends a
Telegram message when new titles enter the list. It performs exactly
one cycle per invocation; scheduling is left to cron or similar.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; env vars suffice)")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point. Fatal run errors surface here as a
// non-zero exit.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
