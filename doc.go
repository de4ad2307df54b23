// Package fearboard provides a shared "fear meter": one bounded counter that an
// operator adjusts from a control page and any number of viewers watch live.
//
// FearBoard is designed as an SDK-first library with a standalone binary on
// top (cmd/fearboard). Configuration uses the functional options pattern.
//
// # Quick Start
//
//	fb, _ := fearboard.New(fearboard.WithTitle("Haunted House"))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	fb.Start(ctx) // blocks until context is cancelled
//
// Open /admin on the operator's screen and /display on the audience's.
//
// # HTTP API
//
//   - GET /state returns {"value":N,"max":M}
//   - POST /state accepts {"action":"inc"}, {"action":"dec"} or
//     {"action":"set","value":N} and returns the resulting state
//   - GET /state/stream is a Server-Sent Events feed: one data frame with the
//     current value on connect, one per change afterwards, and a ": ping"
//     comment every keep-alive interval
//   - GET /metrics exposes Prometheus metrics, GET /healthz a liveness probe
//
// The value is clamped into [0, max]. Out-of-range input is clamped and
// non-numeric input counts as 0; neither is an error.
//
// # Architecture
//
// FearBoard consists of several internal packages (under internal/):
//
//   - internal/store: The bounded counter and its ordered listener registry
//   - internal/server: HTTP server with the JSON API and live feed
//   - internal/metrics: Prometheus collectors and HTTP instrumentation
//   - internal/client: HTTP client for the API, used by "fearboard ctl"
//   - dashboard: Embedded admin and display pages
//
// The value is held in process memory. It is not persisted and is not shared
// between processes.
package fearboard
