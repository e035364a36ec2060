// Package httpclient performs the HTTP requests behind http
// probes in declarative test modules.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"digital.vasic.jester/pkg/logging"
)

// ClientOption configures a Client via functional options.
type ClientOption func(*Client)

// Client wraps net/http.Client with an optional bearer token
// and latency measurement. The zero-option client has a 30s
// timeout.
type Client struct {
	token      string
	maxBody    int64
	httpClient *http.Client
	logger     logging.Logger
}

// Request describes one probe request.
type Request struct {
	Method  string            `json:"method" yaml:"method" toml:"method"`
	URL     string            `json:"url" yaml:"url" toml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty" toml:"body"`
}

// Response is what a probe observed.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
	Latency time.Duration
}

// NewClient creates a client. Pass ClientOption values to
// override defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		maxBody: 10 << 20,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.NullLogger{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithTimeout overrides the default HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithBearerToken sends the token on every request that does
// not set its own Authorization header.
func WithBearerToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithMaxBody limits how many response bytes are kept.
func WithMaxBody(n int64) ClientOption {
	return func(c *Client) { c.maxBody = n }
}

// WithLogger sets the logger used for request diagnostics.
// Credential headers are masked before logging.
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// Do performs req and returns the observed response. A
// non-2xx status is not an error; transport failures are.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if c.token != "" && httpReq.Header.Get("Authorization") == "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if req.Body != "" && httpReq.Header.Get("Content-Type") == "" &&
		json.Valid([]byte(req.Body)) {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug(
		"http probe request",
		logging.StringField("method", method),
		logging.StringField("url", req.URL),
		logging.LogField("headers", logging.RedactHeaders(req.Headers)),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug(
		"http probe response",
		logging.StringField("url", req.URL),
		logging.IntField("status", resp.StatusCode),
		logging.DurationField("latency", latency),
	)

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    data,
		Latency: latency,
	}, nil
}

// JSON decodes the body as JSON.
func (r *Response) JSON() (any, error) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return v, nil
}

// LatencyMs returns the latency in whole milliseconds.
func (r *Response) LatencyMs() int64 {
	return r.Latency.Milliseconds()
}
