// Package routeclient is the HTTP client for the remote /routes collection.
// Every failure wraps domain.ErrUnavailable, whether it is a transport error,
// a non-2xx status or a malformed body.
package routeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkordes/fitroute/internal/domain"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// Unwrap always yields domain.ErrUnavailable, plus domain.ErrNotFound for a 404.
func (e *StatusError) Unwrap() []error {
	if e.Code == http.StatusNotFound {
		return []error{domain.ErrUnavailable, domain.ErrNotFound}
	}
	return []error{domain.ErrUnavailable}
}

// Client talks to <baseURL>/routes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the clock used to stamp createdAt on create.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns a Client for the service at baseURL (scheme and host, optional
// path prefix, no trailing /routes). timeout bounds each request.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "route_client")
	return c
}

// createRequest is the POST body: the payload plus the client's creation time.
type createRequest struct {
	domain.RoutePayload
	CreatedAt time.Time `json:"createdAt"`
}

// List fetches every route.
func (c *Client) List(ctx context.Context) ([]domain.Route, error) {
	var routes []domain.Route
	if err := c.do(ctx, http.MethodGet, "/routes", nil, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// Create posts a new route and returns the server's representation.
func (c *Client) Create(ctx context.Context, p domain.RoutePayload) (domain.Route, error) {
	body := createRequest{RoutePayload: p, CreatedAt: c.now().UTC()}
	var route domain.Route
	if err := c.do(ctx, http.MethodPost, "/routes", body, &route); err != nil {
		return domain.Route{}, err
	}
	return route, nil
}

// Update replaces name, points and photo of route id.
func (c *Client) Update(ctx context.Context, id string, p domain.RoutePayload) (domain.Route, error) {
	var route domain.Route
	if err := c.do(ctx, http.MethodPut, "/routes/"+url.PathEscape(id), p, &route); err != nil {
		return domain.Route{}, err
	}
	return route, nil
}

// Delete removes route id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/routes/"+url.PathEscape(id), nil, nil)
}

// do sends one JSON request. out is left untouched when the response is 204
// or not JSON, so callers see an empty result rather than a decode error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("routeclient: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("routeclient: build %s %s: %w: %w", method, path, domain.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("routeclient: %s %s: %w: %w", method, path, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "request", "method", method, "path", path,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || !isJSON(resp.Header.Get("Content-Type")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("routeclient: decode %s %s: %w: %w", method, path, domain.ErrUnavailable, err)
	}
	return nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
