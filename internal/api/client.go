// Package api is the client for the AMO inventory backend.
package api

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

	"github.com/google/uuid"

	"github.com/Veraticus/amo-inventory/internal/common"
)

// DefaultTimeout bounds every request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

const (
	requestIDHeader = "X-Request-ID"
	maxResponseBody = 10 << 20

	msgUnexpectedResponse = "Unexpected server response"
	msgRequestFailed      = "Request failed"
)

// Client talks JSON to the backend. It is safe for concurrent use once configured.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	limiter    *rateLimiter
	token      string
	retry      common.RetryOptions
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRetryOptions overrides the retry policy for idempotent reads.
func WithRetryOptions(opts common.RetryOptions) Option {
	return func(c *Client) { c.retry = opts }
}

// WithRateLimit caps outgoing requests per minute. Zero or less disables it.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *Client) {
		if requestsPerMinute > 0 {
			c.limiter = newRateLimiter(requestsPerMinute, nil)
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: api base URL", common.ErrMissingConfig)
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: api base URL %q", common.ErrInvalidConfig, baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retry:      common.DefaultRetryOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the bearer token in use, if any.
func (c *Client) Token() string {
	return c.token
}

// getJSON performs an idempotent GET, retrying server and transport failures.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return common.WithRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, query, nil, out)
	}, c.retry)
}

// do sends one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.wait(ctx); err != nil {
			return err
		}
	}

	endpoint := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &common.RetryableError{
			Err:       fmt.Errorf("%s %s: %w", method, path, err),
			Retryable: true,
		}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	slog.Debug("Backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &common.RetryableError{
			Err:       fmt.Errorf("failed to read response: %w", err),
			Retryable: true,
		}
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if success && len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var envelope map[string]any
	if !success {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return &common.APIError{Status: resp.StatusCode, Message: msgUnexpectedResponse}
		}
		return &common.APIError{Status: resp.StatusCode, Message: errorMessage(envelope)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.Debug("Undecodable backend response", "path", path, "error", err)
		return &common.APIError{Status: resp.StatusCode, Message: msgUnexpectedResponse}
	}
	return nil
}

// errorMessage prefers the body's "error" field, then "message".
func errorMessage(body map[string]any) string {
	for _, field := range []string{"error", "message"} {
		if v, ok := body[field]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return msgRequestFailed
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, common.ErrUnauthorized)
}
