// Package client subscribes to a metrsd event stream.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/and161185/metrsd/internal/errs"
	"github.com/and161185/metrsd/internal/utils"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds connecting and waiting for response headers.
	// The stream body itself is never timed out.
	DefaultTimeout = 20 * time.Second

	subscribePath = "/subscribe"
	unixBaseURL   = "http://localhost"
	maxErrorBody  = 64 << 10
)

// APIError is a non-2xx answer of the server.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d]: %s", e.Status, e.Msg)
}

// Client talks to one metrsd endpoint.
type Client struct {
	baseURL    string
	socketPath string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

type Option func(*Client)

// WithTimeout sets the connect and response header timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client. For unix:// addresses
// its transport is replaced by a socket dialer.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) { c.logger = logger }
}

// New validates rawURL and builds a client. Accepted schemes are http,
// https and unix; anything else fails before any I/O.
func New(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.Wrapf(err, errs.KindConfig, "address %q", rawURL)
	}

	c := &Client{timeout: DefaultTimeout}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, errs.Newf(errs.KindConfig, "address %q: missing host", rawURL)
		}
		c.baseURL = strings.TrimRight(rawURL, "/")
	case "unix":
		c.socketPath = u.Host + u.Path
		if c.socketPath == "" {
			return nil, errs.Newf(errs.KindConfig, "address %q: missing socket path", rawURL)
		}
		c.baseURL = unixBaseURL
	default:
		return nil, errs.Wrapf(errs.ErrUnsupportedScheme, errs.KindConfig, "address %q", rawURL)
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	c.httpClient = c.buildHTTPClient()
	return c, nil
}

// BaseURL is the URL requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) buildHTTPClient() *http.Client {
	hc := &http.Client{}
	if c.httpClient != nil {
		cp := *c.httpClient
		hc = &cp
	}
	if hc.Transport != nil && c.socketPath == "" {
		return hc
	}

	dialer := &net.Dialer{Timeout: c.timeout, KeepAlive: 30 * time.Second}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = c.timeout
	tr.TLSHandshakeTimeout = c.timeout
	tr.DialContext = dialer.DialContext
	if c.socketPath != "" {
		path := c.socketPath
		tr.Proxy = nil
		tr.DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", path)
		}
	}
	hc.Transport = tr
	return hc
}

// Subscribe opens the event stream. A non-2xx answer is returned as
// *APIError with the connection already released.
func (c *Client) Subscribe(ctx context.Context) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+subscribePath, nil)
	if err != nil {
		cancel()
		return nil, errs.Wrap(err, errs.KindConfig, "new request")
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, errs.Wrapf(err, errs.KindTransport, "subscribe %s", c.baseURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}

	c.logger.Debugf("subscribed to %s", c.baseURL)
	return newStream(ctx, cancel, resp.Body), nil
}

// SubscribeWithRetry retries Subscribe on transport failures. Server
// answers are never retried.
func (c *Client) SubscribeWithRetry(ctx context.Context) (*Stream, error) {
	var stream *Stream
	err := utils.WithRetry(ctx, func() error {
		s, err := c.Subscribe(ctx)
		if err != nil {
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				c.logger.Warnf("subscribe failed: %v", err)
			}
			return err
		}
		stream = s
		return nil
	})
	return stream, err
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)

	msg := strings.TrimSpace(string(body))
	var eb struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body, &eb); err == nil && eb.Msg != "" {
		msg = eb.Msg
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Msg: msg}
}
