package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/stacknotice/pkg/buildinfo"
	"github.com/matzehuels/stacknotice/pkg/cache"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/observability"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 64 << 10

// Client provides shared HTTP functionality for the upstream clients.
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client. A zero timeout leaves requests unbounded;
// cancellation then only comes from the caller's context.
// Headers are applied to all requests made through this client.
func NewClient(timeout time.Duration, headers map[string]string) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		headers: headers,
	}
}

// WithHTTPClient replaces the underlying *http.Client. Tests use it to
// point at an httptest server.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("status %d: %s", e.StatusCode, truncate(string(e.Body), 200))
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// RetryAfter parses the Retry-After header in seconds, or returns 0.
func (e *StatusError) RetryAfter() int {
	n, err := strconv.Atoi(e.Header.Get("Retry-After"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// PostJSON encodes body as JSON, posts it to url and decodes the response
// into v. Non-2xx responses are returned as *StatusError; transport errors
// are classified with [ClassifyTransport]. A body that does not decode is
// SCHEMA_INVALID.
func (c *Client) PostJSON(ctx context.Context, url string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}
	return c.do(ctx, http.MethodPost, url, bytes.NewReader(payload), v)
}

// GetJSON performs a GET and decodes the response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	return c.do(ctx, http.MethodGet, url, nil, v)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		return ClassifyTransport(ctx, err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if isTimeout(err) {
			return errors.Wrap(errors.ErrCodeUpstreamTimeout, err, "%s %s timed out", method, host)
		}
		return errors.Wrap(errors.ErrCodeSchemaInvalid, err, "decode %s response", host)
	}
	return nil
}

// ClassifyTransport maps a failed round trip onto an error code.
// Cancellation is returned unchanged so callers can detect it with
// errors.Is(err, context.Canceled).
func ClassifyTransport(ctx context.Context, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	if isTimeout(err) {
		return errors.Wrap(errors.ErrCodeUpstreamTimeout, err, "request timed out")
	}
	return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "request failed"))
}

// ClassifyStatus maps a non-2xx response onto an error code. 5xx responses
// other than gateway timeouts are marked retryable.
func ClassifyStatus(e *StatusError) error {
	switch code := e.StatusCode; {
	case code == http.StatusUnauthorized:
		return errors.Wrap(errors.ErrCodeUnauthorized, e, "authentication failed")
	case code == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeUnauthorized, e, "access denied")
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, e, "resource not found")
	case code == http.StatusTooManyRequests:
		return errors.Wrap(errors.ErrCodeRateLimited, &errors.RateLimitedError{RetryAfter: e.RetryAfter()}, "too many requests")
	case code == http.StatusRequestTimeout, code == http.StatusBadGateway, code == http.StatusGatewayTimeout:
		return errors.Wrap(errors.ErrCodeUpstreamTimeout, e, "upstream timed out")
	case code >= 500:
		return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, e, "upstream error"))
	default:
		return errors.Wrap(errors.ErrCodeNetwork, e, "unexpected response")
	}
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
