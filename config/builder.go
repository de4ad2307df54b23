package config

import (
	"log/slog"

	"github.com/jpalmerr/fearboard"
)

// BuildOptions converts parsed configuration into SDK options for [fearboard.New].
//
// The logger is passed through as-is; a nil logger leaves the SDK default in place.
func BuildOptions(cfg *Config, logger *slog.Logger) []fearboard.Option {
	opts := []fearboard.Option{
		fearboard.WithPort(cfg.Port),
		fearboard.WithMax(cfg.Max),
		fearboard.WithKeepAliveInterval(cfg.KeepAliveInterval.Duration()),
	}

	if cfg.Title != "" {
		opts = append(opts, fearboard.WithTitle(cfg.Title))
	}

	if cfg.RateLimit.Enabled() {
		opts = append(opts, fearboard.WithMutationRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	if logger != nil {
		opts = append(opts, fearboard.WithLogger(logger))
	}

	return opts
}
