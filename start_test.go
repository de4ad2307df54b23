package fearboard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startBoard runs fb.Start in the background and waits until the port is bound.
func startBoard(t *testing.T, fb *FearBoard) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- fb.Start(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for fb.Addr() == nil {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("Start() did not bind within 5s")
		}
		select {
		case err := <-done:
			cancel()
			t.Fatalf("Start() returned early with error: %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}

	return "http://" + fb.Addr().String(), cancel, done
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	// use a high port to avoid conflicts
	fb, err := New(WithPort(19101), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, cancel, done := startBoard(t, fb)

	// verify Start is still blocking (channel should be empty)
	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	case <-time.After(50 * time.Millisecond):
		// expected: still blocking
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns immediately if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	fb, err := New(WithPort(19102), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- fb.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Start() did not return immediately for cancelled context")
	}

	if fb.Addr() != nil {
		t.Error("Addr() should be nil when Start never bound")
	}
}

// TestStart_CancelledContextLogsNothing verifies that Start does not announce
// a server it is never going to run.
func TestStart_CancelledContextLogsNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fb, err := New(WithPort(19106), WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := fb.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Start() logged with a cancelled context:\n%s", buf.String())
	}
}

// TestStart_WaitsForInFlightRequest verifies that cancelling the context while
// a mutation is mid-request lets the request finish before Start returns.
func TestStart_WaitsForInFlightRequest(t *testing.T) {
	fb, err := New(WithPort(19105), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, cancel, done := startBoard(t, fb)
	defer cancel()

	conn, err := net.Dial("tcp", fb.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	body := `{"action":"inc"}`
	head := "POST /state HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: 16\r\n\r\n"

	// send the headers and half the body, leaving the handler waiting
	if _, err := io.WriteString(conn, head+body[:8]); err != nil {
		t.Fatalf("write request head: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	cancel()

	// Start must still be draining the open request
	select {
	case err := <-done:
		t.Fatalf("Start() returned while a request was in flight (err = %v)", err)
	case <-time.After(200 * time.Millisecond):
	}

	if _, err := io.WriteString(conn, body[8:]); err != nil {
		t.Fatalf("write request tail: %v", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	var state struct {
		Value int `json:"value"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&state)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decodeErr != nil {
		t.Fatalf("decode response: %v", decodeErr)
	}
	if state.Value != 1 {
		t.Errorf("value = %d, want 1", state.Value)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Start() did not return after the in-flight request finished")
	}

	if fb.Value() != 1 {
		t.Errorf("Value() = %d, want 1", fb.Value())
	}
}

// TestStart_PortInUse verifies that Start surfaces bind failures instead of blocking.
func TestStart_PortInUse(t *testing.T) {
	first, err := New(WithPort(19103), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, cancel, _ := startBoard(t, first)
	defer cancel()

	second, err := New(WithPort(19103), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = second.Start(context.Background())
	if err == nil {
		t.Fatal("Start() expected error for port in use, got nil")
	}
	if !strings.Contains(err.Error(), "failed to start HTTP server") {
		t.Errorf("error = %v, want error containing 'failed to start HTTP server'", err)
	}
}

// TestStart_EndToEnd drives a mutation over HTTP and checks that it reaches
// an open live feed, the snapshot endpoint and the metrics endpoint.
func TestStart_EndToEnd(t *testing.T) {
	fb, err := New(WithPort(19104), WithLogger(testLogger()), WithTitle("Haunted House"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	fb.Set(2)

	base, cancel, done := startBoard(t, fb)
	defer func() {
		cancel()
		<-done
	}()

	streamResp, err := http.Get(base + "/state/stream")
	if err != nil {
		t.Fatalf("GET /state/stream error = %v", err)
	}
	defer streamResp.Body.Close()

	if ct := streamResp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/event-stream")
	}

	frames := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(streamResp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				frames <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(frames)
	}()

	expectFrame := func(want string) {
		t.Helper()
		select {
		case got := <-frames:
			if got != want {
				t.Errorf("frame = %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no frame received, want %q", want)
		}
	}

	expectFrame(`{"value":2}`)

	resp, err := http.Post(base+"/state", "application/json", strings.NewReader(`{"action":"set","value":12}`))
	if err != nil {
		t.Fatalf("POST /state error = %v", err)
	}
	var state struct {
		Value int `json:"value"`
		Max   int `json:"max"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	_ = resp.Body.Close()

	if state.Value != 12 || state.Max != 15 {
		t.Errorf("POST /state = %+v, want value 12 max 15", state)
	}

	expectFrame(`{"value":12}`)

	// SDK mutations reach the same feed
	fb.Increment(1)
	expectFrame(`{"value":13}`)

	metricsResp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ := io.ReadAll(metricsResp.Body)
	_ = metricsResp.Body.Close()

	for _, want := range []string{
		"fearboard_counter_value 13",
		"fearboard_counter_max 15",
		`fearboard_mutations_total{action="set"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	pageResp, err := http.Get(base + "/display")
	if err != nil {
		t.Fatalf("GET /display error = %v", err)
	}
	page, _ := io.ReadAll(pageResp.Body)
	_ = pageResp.Body.Close()

	if !strings.Contains(string(page), "Haunted House") {
		t.Errorf("display page does not carry the configured title: %.80s", page)
	}
}
