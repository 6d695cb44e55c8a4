package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-stationwatch/internal/config"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxGetAttempts = 3
	initialDelay   = 200 * time.Millisecond
	maxDelay       = 2 * time.Second
)

// Doer executes a single HTTP request. *http.Client satisfies it, and tests
// substitute an in-process stub.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider supplies a bearer token for outgoing requests. An empty token
// means no Authorization header is attached.
type TokenProvider interface {
	Token() string
}

// Client is the REST transport for the reports API. It owns the response
// handling contract: non-2xx becomes *TransportError (404 becomes
// *NotFoundError), 2xx JSON is decoded, anything else is raw text.
type Client struct {
	base *url.URL
	doer Doer
	log  *zap.Logger

	// Tokens is assigned after the auth service is constructed; nil means
	// unauthenticated requests.
	Tokens TokenProvider
}

func NewClient(cfg *config.Config, doer Doer, log *zap.Logger) (*Client, error) {
	base, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", cfg.APIBaseURL, err)
	}
	return &Client{base: base, doer: doer, log: log}, nil
}

// Get issues a GET with bounded retries. Only server-side (>=500) and
// network-level failures are retried; mutations never go through this path.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return retry.Do(
		func() error {
			return c.do(ctx, http.MethodGet, path, query, nil, "", out)
		},
		retry.Attempts(maxGetAttempts),
		retry.Delay(initialDelay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
	)
}

func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, data, "application/json", out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPatch, path, nil, data, "application/json", out)
}

// PostMultipart sends a pre-encoded multipart/form-data payload.
func (c *Client) PostMultipart(ctx context.Context, path string, body []byte, contentType string, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.Tokens != nil {
		if tok := c.Tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api request", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
	return decodeResponse(resp, path, out)
}

func decodeResponse(resp *http.Response, path string, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Path: path}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &TransportError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	if s, ok := out.(*string); ok {
		*s = string(data)
		return nil
	}
	return fmt.Errorf("unexpected content type %q for %s", contentType, path)
}

func retryable(err error) bool {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Status >= http.StatusInternalServerError
	}
	// Network-level failure.
	return true
}

// ResolvePhotoURL resolves a server-relative photo path against the configured
// API origin. Absolute URLs pass through untouched.
func (c *Client) ResolvePhotoURL(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	ref, err := url.Parse(p)
	if err != nil {
		return p
	}
	return c.base.ResolveReference(ref).String()
}
