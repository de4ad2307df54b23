package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a FearBoard configuration without starting the server.

This command parses the YAML, applies FEARBOARD_* environment overrides and
validates all fields. It's useful for CI/CD pipelines or pre-deployment checks.
Without -c only the defaults and environment are checked.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  fearboard validate -c config.yaml
  fearboard validate --config /etc/fearboard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	rateLimit := "off"
	if cfg.RateLimit.Enabled() {
		rateLimit = fmt.Sprintf("%g/s (burst %d)", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	title := cfg.Title
	if title == "" {
		title = "FearBoard"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Title:      %s\n", title)
	fmt.Fprintf(out, "  Port:       %d\n", cfg.Port)
	fmt.Fprintf(out, "  Max:        %d\n", cfg.Max)
	fmt.Fprintf(out, "  Keep-alive: %s\n", cfg.KeepAliveInterval)
	fmt.Fprintf(out, "  Log level:  %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "  Rate limit: %s\n", rateLimit)

	return nil
}
