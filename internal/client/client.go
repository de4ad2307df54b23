package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/fearboard/internal/store"
)

const maxResponseBodySize = 64 << 10 // 64KB

// connection pooling limits; the client only ever talks to one FearBoard instance
const (
	defaultMaxIdleConns    = 4
	defaultMaxConnsPerHost = 4
	defaultIdleConnTimeout = 30 * time.Second
	defaultRequestTimeout  = 5 * time.Second
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int

	// Message is the "error" field of the JSON body, or the raw body if it
	// was not JSON.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the FearBoard HTTP API.
//
// Each call is bounded by the context passed in; when the context carries no
// deadline a 5 second timeout is applied.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a [Client] for the server at baseURL (for example
// "http://localhost:8080"). If httpClient is nil, a pooled client is built.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConns,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Get returns the current state.
func (c *Client) Get(ctx context.Context) (store.State, error) {
	return c.do(ctx, http.MethodGet, nil)
}

// Increment raises the value by one and returns the resulting state.
func (c *Client) Increment(ctx context.Context) (store.State, error) {
	return c.mutate(ctx, map[string]any{"action": "inc"})
}

// Decrement lowers the value by one and returns the resulting state.
func (c *Client) Decrement(ctx context.Context) (store.State, error) {
	return c.mutate(ctx, map[string]any{"action": "dec"})
}

// Set replaces the value and returns the resulting state. The server clamps
// n into [0, max], so the returned value may differ from n.
func (c *Client) Set(ctx context.Context, n float64) (store.State, error) {
	return c.mutate(ctx, map[string]any{"action": "set", "value": n})
}

func (c *Client) mutate(ctx context.Context, body map[string]any) (store.State, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return store.State{}, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, payload)
}

func (c *Client) do(ctx context.Context, method string, payload []byte) (store.State, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultRequestTimeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/state", body)
	if err != nil {
		return store.State{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return store.State{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return store.State{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return store.State{}, newAPIError(resp.StatusCode, data)
	}

	var st store.State
	if err := json.Unmarshal(data, &st); err != nil {
		return store.State{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return st, nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: status, Message: payload.Error}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

// IsRateLimited reports whether err is a 429 from the server.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// Close releases idle connections held by the client's transport.
//
// Safe to call multiple times. The client remains usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
