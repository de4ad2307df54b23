package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jpalmerr/fearboard/internal/metrics"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// feedQueueSize is the number of value frames a connection may have pending.
	feedQueueSize = 16
)

// feedState is the lifecycle position of a live feed connection.
type feedState int

const (
	feedOpening feedState = iota
	feedStreaming
	feedClosed
)

func (s feedState) String() string {
	switch s {
	case feedOpening:
		return "opening"
	case feedStreaming:
		return "streaming"
	case feedClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// valueFrame is the payload of every data frame.
type valueFrame struct {
	Value int `json:"value"`
}

// feed is one live feed connection.
//
// The store listener only ever enqueues onto queue; the handler goroutine is
// the sole writer to the response, so value frames and pings never interleave.
type feed struct {
	id      string
	queue   chan int
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu          sync.Mutex
	state       feedState
	closeOnce   sync.Once
	ticker      clockwork.Ticker
	unsubscribe func()
}

// enqueue hands a value to the connection without blocking the store.
//
// When the queue is full the oldest pending value is discarded, so the most
// recent value is always delivered.
func (f *feed) enqueue(v int) {
	for {
		select {
		case f.queue <- v:
			return
		default:
		}

		select {
		case <-f.queue:
			f.metrics.StreamFramesDropped.Inc()
		default:
		}
	}
}

// setState records s and returns the state it replaced.
func (f *feed) setState(s feedState) feedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.state
	f.state = s
	return prev
}

// close moves the feed to its terminal state. Only the first call has any effect.
func (f *feed) close(reason string) {
	f.closeOnce.Do(func() {
		prev := f.setState(feedClosed)
		if f.ticker != nil {
			f.ticker.Stop()
		}
		if f.unsubscribe != nil {
			f.unsubscribe()
		}
		f.metrics.StreamConnections.Dec()
		f.logger.Debug("live feed closed", "reason", reason, "from", prev.String())
	})
}

// sseWriter writes SSE frames with a per-write deadline.
type sseWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	metrics *metrics.Metrics
	logger  *slog.Logger

	// deadlines may not be supported by some ResponseWriter implementations
	deadlinesSupported bool
}

func newSSEWriter(w http.ResponseWriter, m *metrics.Metrics, logger *slog.Logger) *sseWriter {
	return &sseWriter{
		w:                  w,
		rc:                 http.NewResponseController(w),
		metrics:            m,
		logger:             logger,
		deadlinesSupported: true,
	}
}

// value writes a data frame carrying v.
func (sw *sseWriter) value(v int) error {
	data, err := json.Marshal(valueFrame{Value: v})
	if err != nil {
		return err
	}
	if err := sw.writeAndFlush("data: %s\n\n", data); err != nil {
		return err
	}
	sw.metrics.StreamFrames.WithLabelValues(metrics.FrameData).Inc()
	return nil
}

// ping writes a comment frame, which conforming clients ignore.
func (sw *sseWriter) ping() error {
	if err := sw.writeAndFlush(": ping\n\n"); err != nil {
		return err
	}
	sw.metrics.StreamFrames.WithLabelValues(metrics.FramePing).Inc()
	return nil
}

// writeAndFlush writes with a deadline to prevent blocking forever.
// If the client is slow or disconnected, the write will time out rather than
// blocking indefinitely, allowing the handler to notice shutdown.
func (sw *sseWriter) writeAndFlush(format string, args ...any) error {
	if sw.deadlinesSupported {
		if err := sw.rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
			// deadline not supported by underlying connection, continue without
			sw.logger.Debug("sse write deadlines not supported", "error", err)
			sw.deadlinesSupported = false
		}
	}

	if _, err := fmt.Fprintf(sw.w, format, args...); err != nil {
		return err
	}

	// ResponseController.Flush respects the write deadline
	return sw.rc.Flush()
}

// handleStream serves the live feed.
//
// The connection opens with a snapshot frame so the display never starts
// blank, then forwards every committed change and a ping comment each
// keep-alive interval. It closes when the client goes away, the server shuts
// down, or a write fails.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	f := &feed{
		id:      uuid.NewString(),
		queue:   make(chan int, feedQueueSize),
		metrics: s.metrics,
	}
	f.logger = s.logger.With("connection_id", f.id)
	sw := newSSEWriter(w, s.metrics, f.logger)

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	s.metrics.StreamConnections.Inc()
	current, unsubscribe := s.store.Watch(f.enqueue)
	f.unsubscribe = unsubscribe
	defer f.close("handler exit")

	f.logger.Debug("live feed opened", "value", current)

	// snapshot first, so the display has something to render
	if err := sw.value(current); err != nil {
		f.close("write failed")
		return
	}

	f.ticker = s.clock.NewTicker(s.keepAlive)
	f.setState(feedStreaming)

	for {
		select {
		case v := <-f.queue:
			if err := sw.value(v); err != nil {
				f.close("write failed")
				return
			}

		case <-f.ticker.Chan():
			if err := sw.ping(); err != nil {
				f.close("write failed")
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			f.close("context done")
			return
		}
	}
}
