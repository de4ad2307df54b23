// Package config provides YAML configuration parsing for FearBoard.
//
// This package enables running FearBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// Every setting can also be overridden through FEARBOARD_* environment
// variables, which take precedence over the file.
//
// Example configuration:
//
//	title: Haunted House
//	port: 8080
//	max: 15
//	keepalive_interval: 15s
//	log_level: info
//
//	rate_limit:
//	  requests_per_second: 5
//	  burst: 10
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort              = 8080
	defaultMax               = 15
	defaultKeepAliveInterval = 15 * time.Second
	defaultLogLevel          = "info"

	// minKeepAliveInterval keeps idle feeds from being flooded with pings.
	minKeepAliveInterval = 1 * time.Second
)

// Config is the root configuration structure for FearBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load], [Parse] or [FromEnv] to create a validated Config.
type Config struct {
	// Title is the page title. Defaults to "FearBoard" if not set.
	Title string `yaml:"title" env:"FEARBOARD_TITLE"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" env:"FEARBOARD_PORT"`

	// Max is the upper bound of the fear value. Defaults to 15.
	Max int `yaml:"max" env:"FEARBOARD_MAX"`

	// KeepAliveInterval is the time between ping frames on idle live feeds.
	// Accepts duration strings like "15s", "1m". Defaults to 15s.
	KeepAliveInterval Duration `yaml:"keepalive_interval" env:"FEARBOARD_KEEPALIVE_INTERVAL"`

	// LogLevel is one of debug, info, warn or error. Defaults to info.
	LogLevel string `yaml:"log_level" env:"FEARBOARD_LOG_LEVEL"`

	// RateLimit throttles mutation requests. Disabled when requests_per_second is 0.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the global token bucket in front of POST /state.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"FEARBOARD_RATE_LIMIT_RPS"`
	Burst             int     `yaml:"burst" env:"FEARBOARD_RATE_LIMIT_BURST"`
}

// Enabled reports whether mutations are rate limited.
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerSecond > 0
}

// Duration is a time.Duration that can be unmarshalled from YAML and
// environment strings like "15s", "1m" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used for environment overrides.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String formats the duration the way it is written in YAML.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Default returns a Config holding every default value.
func Default() *Config {
	return &Config{
		Port:              defaultPort,
		Max:               defaultMax,
		KeepAliveInterval: Duration(defaultKeepAliveInterval),
		LogLevel:          defaultLogLevel,
		RateLimit: RateLimitConfig{
			Burst: 1,
		},
	}
}

// Load reads and parses a YAML configuration file.
//
// Environment overrides are applied and the result is validated.
// Returns an error if the file cannot be read, parsed, or is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Keys missing from data keep their defaults. Environment overrides are then
// applied and the result is validated.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(cfg)
}

// FromEnv builds a configuration from defaults and environment overrides only.
// It is used when no configuration file is given.
func FromEnv() (*Config, error) {
	return finish(Default())
}

func finish(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks every field, reporting the first problem found.
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.Max < 1 {
		return fmt.Errorf("max must be at least 1, got %d", c.Max)
	}

	if c.KeepAliveInterval.Duration() < minKeepAliveInterval {
		return fmt.Errorf("keepalive_interval must be at least %s, got %s",
			minKeepAliveInterval, c.KeepAliveInterval.Duration())
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second cannot be negative, got %v",
			c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.Enabled() && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1, got %d", c.RateLimit.Burst)
	}

	return nil
}

// SlogLevel returns the configured log level as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
	}
}
