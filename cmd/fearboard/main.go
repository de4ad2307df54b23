// Package main is the entry point for the fearboard CLI.
//
// FearBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach,
// plus a small control client for a running server.
//
// Usage:
//
//	fearboard serve -c config.yaml    # Start the server
//	fearboard validate -c config.yaml # Validate configuration
//	fearboard ctl inc                 # Adjust a running server
//	fearboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "fearboard",
	Short: "A shared fear meter with a live display",
	Long: `FearBoard keeps one bounded "fear" value and shows it live.

An operator raises and lowers the value from the admin page; every open
display page follows along through Server-Sent Events.

Quick start:
  1. Run: fearboard serve
  2. Open http://localhost:8080/admin on the operator's screen
  3. Open http://localhost:8080/display on the audience's screen

Example config:
  title: Haunted House
  port: 8080
  max: 15
  keepalive_interval: 15s`,
	SilenceUsage: true,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this fearboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fearboard %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
