package fearboard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// fbConfig holds mutable state during FearBoard construction.
type fbConfig struct {
	title           string
	port            int
	max             int
	keepAlive       time.Duration
	logger          *slog.Logger
	clock           clockwork.Clock
	rateLimit       float64
	rateBurst       int
	changeCallbacks []func(int)
}

// Option is a function that configures a [FearBoard] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithPort], [WithMax], [WithKeepAliveInterval],
// [WithLogger], [WithTitle], [WithMutationRateLimit], [WithChangeCallback],
// [WithClock].
type Option func(*fbConfig) error

// WithPort sets the HTTP port for the API and dashboard.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *fbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMax sets the upper bound of the fear value.
//
// The bound is fixed for the lifetime of the instance. Defaults to 15.
//
// Example:
//
//	fb, err := fearboard.New(fearboard.WithMax(10))
//
// Returns an error if max is less than 1.
func WithMax(max int) Option {
	return func(cfg *fbConfig) error {
		if max < 1 {
			return errors.New("max must be at least 1")
		}
		cfg.max = max
		return nil
	}
}

// WithKeepAliveInterval sets how often idle live feeds receive a ping frame.
//
// Pings keep proxies and load balancers from closing quiet connections.
// Defaults to 15 seconds.
//
// Returns an error if the duration is zero or negative.
func WithKeepAliveInterval(d time.Duration) Option {
	return func(cfg *fbConfig) error {
		if d <= 0 {
			return errors.New("keep-alive interval must be positive")
		}
		cfg.keepAlive = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the FearBoard instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *fbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the title shown on the admin and display pages.
//
// If not specified, defaults to "FearBoard".
func WithTitle(title string) Option {
	return func(cfg *fbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithMutationRateLimit throttles POST /state to rps requests per second
// with bursts of up to burst requests.
//
// The limit is global, not per client: there is one shared value and usually
// one operator. Requests over the limit receive 429 and change nothing.
// Reads and live feeds are never throttled. Disabled by default.
//
// Returns an error if rps is not positive or burst is less than 1.
func WithMutationRateLimit(rps float64, burst int) Option {
	return func(cfg *fbConfig) error {
		if rps <= 0 {
			return errors.New("mutation rate limit must be positive")
		}
		if burst < 1 {
			return errors.New("mutation rate limit burst must be at least 1")
		}
		cfg.rateLimit = rps
		cfg.rateBurst = burst
		return nil
	}
}

// WithChangeCallback registers a function called with the new value after every change.
//
// Callbacks only fire on actual transitions; setting the value it already
// holds does not trigger them. Multiple callbacks execute in registration
// order.
//
// IMPORTANT: Callbacks run while the value is locked. They must be
// non-blocking and must not call back into the FearBoard; dispatch
// long-running work to a separate goroutine. Panics are recovered and logged.
//
// Example:
//
//	fb, err := fearboard.New(
//	    fearboard.WithChangeCallback(func(v int) {
//	        if v == 15 {
//	            log.Println("maximum fear reached")
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithChangeCallback(cb func(value int)) Option {
	return func(cfg *fbConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.changeCallbacks = append(cfg.changeCallbacks, cb)
		return nil
	}
}

// WithClock sets the clock driving live feed keep-alive tickers.
//
// Intended for tests, which can pass a [clockwork.FakeClock] to trigger
// pings deterministically.
//
// Returns an error if the clock is nil.
func WithClock(clock clockwork.Clock) Option {
	return func(cfg *fbConfig) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = clock
		return nil
	}
}
