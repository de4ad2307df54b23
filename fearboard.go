package fearboard

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jpalmerr/fearboard/dashboard"
	"github.com/jpalmerr/fearboard/internal/metrics"
	"github.com/jpalmerr/fearboard/internal/server"
	"github.com/jpalmerr/fearboard/internal/store"
)

// DefaultMax is the upper bound used when [WithMax] is not given.
const DefaultMax = store.DefaultMax

const (
	defaultPort              = 8080
	defaultKeepAliveInterval = server.DefaultKeepAliveInterval
)

// FearBoard owns the shared fear value and serves it to control and display surfaces.
//
// FearBoard holds a single bounded counter, exposes it over HTTP (snapshot,
// mutation and a Server-Sent Events live feed) and serves the embedded admin
// and display pages. It is created using [New] with functional options and
// started with [FearBoard.Start].
//
// The typical lifecycle is:
//
//	fb, err := fearboard.New(fearboard.WithPort(8080))
//	if err != nil {
//	    slog.Error("failed to create fearboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	fb.Start(ctx) // blocks until context cancelled
//
// The value lives in memory only and starts at 0 every time the process starts.
type FearBoard struct {
	title     string
	port      int
	keepAlive time.Duration
	logger    *slog.Logger
	clock     clockwork.Clock
	limiter   *rate.Limiter

	store       *store.MemoryStore
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	httpMetrics *metrics.HTTPMetrics

	mu   sync.Mutex
	addr net.Addr
}

// New creates a new [FearBoard] instance with the given options.
//
// All options have sensible defaults:
//   - Port: 8080
//   - Max: 15
//   - Keep-alive interval: 15 seconds
//   - Mutation rate limit: none
//
// Returns an error if any option is invalid.
//
// Example:
//
//	fb, err := fearboard.New(
//	    fearboard.WithMax(10),
//	    fearboard.WithPort(9090),
//	)
func New(opts ...Option) (*FearBoard, error) {
	cfg := &fbConfig{
		port:      defaultPort,
		max:       DefaultMax,
		keepAlive: defaultKeepAliveInterval,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var limiter *rate.Limiter
	if cfg.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst)
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	m.CounterMax.Set(float64(cfg.max))

	st := store.NewMemoryStore(cfg.max, logger)
	st.Subscribe(m.ObserveChange)
	for _, cb := range cfg.changeCallbacks {
		st.Subscribe(store.Listener(cb))
	}

	return &FearBoard{
		title:       cfg.title,
		port:        cfg.port,
		keepAlive:   cfg.keepAlive,
		logger:      logger,
		clock:       clock,
		limiter:     limiter,
		store:       st,
		registry:    reg,
		metrics:     m,
		httpMetrics: metrics.NewHTTPMetrics(reg),
	}, nil
}

// Start serves the API, live feed and dashboard pages.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The HTTP server listens on the configured port
//   - Every change to the value is pushed to all open live feeds
//   - The admin page is available at http://localhost:<port>/admin
//   - The display page is available at http://localhost:<port>/display
//
// The caller controls the lifecycle via context cancellation. For signal handling,
// use [signal.NotifyContext]:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	fb.Start(ctx)
//
// After cancellation Start waits for in-flight requests to complete (up to
// 5 seconds) before returning.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (fb *FearBoard) Start(ctx context.Context) error {
	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	fb.logger.Info("fearboard starting", "max", fb.store.Max())
	fb.logger.Info("live feed configured", "keepalive_interval", fb.keepAlive.String())
	fb.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", fb.port))

	httpServer := server.NewServer(fb.store, server.Options{
		Port:              fb.port,
		Assets:            dashboard.Assets,
		Title:             fb.title,
		Logger:            fb.logger,
		KeepAliveInterval: fb.keepAlive,
		Clock:             fb.clock,
		Metrics:           fb.metrics,
		HTTPMetrics:       fb.httpMetrics,
		MetricsHandler:    metrics.Handler(fb.registry),
		MutationLimiter:   fb.limiter,
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	fb.mu.Lock()
	fb.addr = httpServer.Addr()
	fb.mu.Unlock()

	<-ctx.Done()
	fb.logger.Info("fearboard stopping")

	// in-flight requests finish before Start returns
	httpServer.Wait()
	fb.logger.Info("fearboard stopped", "value", fb.store.Get())
	return nil
}

// Value returns the current fear value.
func (fb *FearBoard) Value() int {
	return fb.store.Get()
}

// Max returns the upper bound of the fear value.
func (fb *FearBoard) Max() int {
	return fb.store.Max()
}

// Set stores n clamped into [0, Max] and returns the stored value.
// Non-finite input is treated as 0. Connected displays are updated if the value changed.
func (fb *FearBoard) Set(n float64) int {
	return fb.store.Set(n)
}

// Increment raises the value by delta, stopping at Max.
func (fb *FearBoard) Increment(delta int) int {
	return fb.store.Increment(delta)
}

// Decrement lowers the value by delta, stopping at 0.
func (fb *FearBoard) Decrement(delta int) int {
	return fb.store.Decrement(delta)
}

// Port returns the configured HTTP port.
func (fb *FearBoard) Port() int {
	return fb.port
}

// KeepAliveInterval returns the period between live feed ping frames.
func (fb *FearBoard) KeepAliveInterval() time.Duration {
	return fb.keepAlive
}

// Addr returns the listening address once [FearBoard.Start] has bound the port.
func (fb *FearBoard) Addr() net.Addr {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.addr
}
