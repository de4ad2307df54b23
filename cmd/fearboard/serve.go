package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/fearboard"
	"github.com/jpalmerr/fearboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig reads the file named by --config, or falls back to defaults
// plus environment overrides when the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.FromEnv()
	}
	return config.Load(configFile)
}

// serveCmd starts the FearBoard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Long: `Start the FearBoard server.

The server will:
  - Load configuration from the given YAML file (optional)
  - Apply FEARBOARD_* environment overrides
  - Serve the API, live feed and pages on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  fearboard serve
  fearboard serve -c config.yaml
  FEARBOARD_PORT=9090 fearboard serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.SlogLevel())
	logger.Info("config loaded",
		"port", cfg.Port,
		"max", cfg.Max,
		"keepalive_interval", cfg.KeepAliveInterval.String(),
		"rate_limited", cfg.RateLimit.Enabled(),
	)

	fb, err := fearboard.New(config.BuildOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create FearBoard: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, fb, logger)
}

// serve runs fb until ctx is cancelled, then waits up to shutdownTimeout for it to stop.
func serve(ctx context.Context, fb *fearboard.FearBoard, logger *slog.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- fb.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
