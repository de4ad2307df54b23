package server

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jpalmerr/fearboard/internal/metrics"
	"github.com/jpalmerr/fearboard/internal/store"
)

const (
	// DefaultKeepAliveInterval is how often an idle live feed receives a ping
	// comment, keeping intermediary proxies from timing the connection out.
	DefaultKeepAliveInterval = 15 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "FearBoard"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Options configures a [Server]. Zero values select defaults.
type Options struct {
	// Port is the TCP port to listen on. 0 picks a free port.
	Port int

	// Assets is the embedded filesystem holding the admin and display pages.
	// When nil, only the API routes are served.
	Assets fs.FS

	// Title replaces the title placeholder in served pages.
	Title string

	// Logger receives server events. Defaults to slog.Default().
	Logger *slog.Logger

	// KeepAliveInterval is the ping period of live feeds. Defaults to 15s.
	KeepAliveInterval time.Duration

	// Clock drives keep-alive tickers. Defaults to the real clock.
	Clock clockwork.Clock

	// Metrics records counter and stream metrics. Defaults to an unexposed registry.
	Metrics *metrics.Metrics

	// HTTPMetrics instruments request/response endpoints. Optional.
	HTTPMetrics *metrics.HTTPMetrics

	// MetricsHandler is served at /metrics when set.
	MetricsHandler http.Handler

	// MutationLimiter throttles POST /state when set.
	MutationLimiter *rate.Limiter
}

// Server handles HTTP requests for the FearBoard surfaces and API.
//
// Server provides these endpoints:
//   - GET /state: Current value and bound as JSON
//   - POST /state: Apply an inc, dec or set action
//   - GET /state/stream: Server-Sent Events live feed of the value
//   - GET /healthz: Liveness probe
//   - GET /metrics: Prometheus metrics (when configured)
//   - GET /, /admin, /display: Embedded pages (when assets are provided)
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store          store.Store
	port           int
	assets         fs.FS
	title          string
	logger         *slog.Logger
	keepAlive      time.Duration
	clock          clockwork.Clock
	metrics        *metrics.Metrics
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	limiter        *rate.Limiter

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr

	// done is closed once graceful shutdown has finished
	done chan struct{}
}

// NewServer creates a new HTTP [Server] backed by st.
//
// The server is not started until [Server.Start] is called; [Server.Handler]
// can be used directly to mount the routes elsewhere or in tests.
func NewServer(st store.Store, opts Options) *Server {
	s := &Server{
		store:          st,
		port:           opts.Port,
		assets:         opts.Assets,
		title:          opts.Title,
		logger:         opts.Logger,
		keepAlive:      opts.KeepAliveInterval,
		clock:          opts.Clock,
		metrics:        opts.Metrics,
		httpMetrics:    opts.HTTPMetrics,
		metricsHandler: opts.MetricsHandler,
		limiter:        opts.MutationLimiter,
		done:           make(chan struct{}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.keepAlive <= 0 {
		s.keepAlive = DefaultKeepAliveInterval
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s
}

// Handler returns the routed handler for all server endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	s.handle(mux, "GET /state", s.handleSnapshot)
	s.handle(mux, "POST /state", s.handleMutate)
	s.handle(mux, "GET /healthz", s.handleHealth)

	// the live feed is long-lived, so it stays out of the request histogram
	mux.HandleFunc("GET /state/stream", s.handleStream)

	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	// serve the presentation pages
	if s.assets != nil {
		s.handle(mux, "GET /{$}", s.handlePage("index"))
		s.handle(mux, "GET /admin", s.handlePage("admin"))
		s.handle(mux, "GET /display", s.handlePage("display"))
	}

	return mux
}

// handle registers fn under pattern, instrumented when HTTP metrics are configured.
func (s *Server) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	if s.httpMetrics == nil {
		mux.Handle(pattern, fn)
		return
	}
	mux.Handle(pattern, s.httpMetrics.Middleware(pattern, fn))
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout. Open live feeds end when the context is cancelled. Use
// [Server.Wait] to block until that shutdown has finished. Start must be
// called at most once.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		close(s.done)
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// which ends long-running live feed handlers.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Wait blocks until graceful shutdown has drained in-flight requests or the
// shutdown timeout has elapsed.
// Wait returns immediately if Start failed to bind and blocks forever if
// Start was never called.
func (s *Server) Wait() {
	<-s.done
}

// Addr returns the address the server is listening on, or nil before [Server.Start].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handlePage serves assets/<name>.html with the title substituted.
func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(s.assets, "assets/"+name+".html")
		if err != nil {
			http.Error(w, "Page not found", http.StatusInternalServerError)
			return
		}

		// apply title substitution with HTML escaping to prevent XSS
		title := s.title
		if title == "" {
			title = defaultTitle
		}
		rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err = w.Write([]byte(rendered)); err != nil {
			s.logger.Error("failed to write page response", "page", name, "error", err)
		}
	}
}
