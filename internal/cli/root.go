// Package cli implements the vision command tree. Every action the HTTP
// server exposes is also callable directly, with --json producing the same
// envelope the server returns.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdlocpanda/vision/internal/ui"
)

// Persistent flags shared by every subcommand.
var (
	configFlag string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "vision",
	Short: "Homelab actions for the Rancher cluster and the Vision host",
	Long: `vision wraps the rancher and kubectl CLIs plus SSH access to the
Vision machine behind one command tree and a small HTTP daemon.

Run 'vision serve' to start the action server, or call any action
directly:

  vision pods --namespace apps
  vision vm start win11
  vision exec "uptime"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			os.Setenv("VISION_DEBUG", "1")
		}
		if machineMode {
			ui.DisableColor()
		} else {
			ui.AutoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to vision.yaml")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "machine-readable JSON output")
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if machineMode {
			_ = WriteJSONFromError(os.Stdout, err)
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

// Root returns the root command for tests.
func Root() *cobra.Command {
	return rootCmd
}
