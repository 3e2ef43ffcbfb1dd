// Package client provides an authenticated REST client for the ocean data backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raphaelgruber/oceanboard/internal/appstate"
	"github.com/raphaelgruber/oceanboard/internal/breaker"
)

// ErrUnauthenticated is returned when there is no usable token or the backend
// answers 401. It is the one failure the loaders never replace with sample data.
var ErrUnauthenticated = appstate.ErrUnauthenticated

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error: %s", e.Status)
	}
	return fmt.Sprintf("server error: %s - %s", e.Status, truncate(e.Body, 200))
}

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() (string, error)
}

// Client is a REST client for the ocean data backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	breaker    *breaker.Breaker
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBreaker guards the transport with a circuit breaker.
func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL (e.g. http://localhost:8000).
// tokens may be nil for unauthenticated use (login and register only).
func New(baseURL string, tokens TokenSource, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one REST call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any       // JSON-encoded when non-nil
	raw    io.Reader // sent as-is when non-nil
	header http.Header
	public bool // no bearer token
}

// do executes req and decodes a JSON response into result (if non-nil).
func (c *Client) do(ctx context.Context, req request, result any) error {
	body, _, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode %s: %w", req.path, err)
	}
	return nil
}

// send executes req and returns the raw body and headers of a 2xx response.
func (c *Client) send(ctx context.Context, req request) ([]byte, http.Header, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	var (
		body    []byte
		headers http.Header
	)
	call := func() error {
		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		headers = resp.Header

		c.logger.Debug("api request",
			"method", req.method,
			"path", req.path,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthenticated, strings.TrimSpace(string(body)))
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
		}
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(call, notTransportFailure)
	} else {
		err = call()
	}
	if err != nil {
		return nil, nil, err
	}
	return body, headers, nil
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var reader io.Reader
	switch {
	case req.raw != nil:
		reader = req.raw
	case req.body != nil:
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.header {
		httpReq.Header[k] = v
	}

	if !req.public {
		if c.tokens == nil {
			return nil, ErrUnauthenticated
		}
		token, err := c.tokens.Token()
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

// notTransportFailure reports errors that say nothing about backend health
// and so must not trip the breaker.
func notTransportFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrUnauthenticated) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
