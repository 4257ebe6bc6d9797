package web

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"
)

// Default transport settings. Index sites are ordinary web servers, so
// the defaults lean conservative rather than aggressive.
const (
	// DefaultTimeout applies per request, covering connection setup
	// and the full body read for listing pages.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxListingSize limits how much of a listing page is read.
	// Auto-generated index pages are small; anything beyond this is
	// not a listing we can parse anyway.
	DefaultMaxListingSize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies mirrordex in request logs.
	DefaultUserAgent = "mirrordex/1.0 (+https://github.com/mirrordex/mirrordex)"
)

// Client issues the GET requests for the crawl and download steps.
// It performs no retries: a failed request surfaces as an ErrFetch and
// the caller decides whether the run continues.
type Client struct {
	// httpClient is the underlying HTTP client, optionally routed
	// through a SOCKS5 proxy.
	httpClient *http.Client

	// userAgent is sent with every request.
	userAgent string

	// headers are extra headers applied to every request, typically
	// from per-site configuration.
	headers map[string]string

	// maxListingSize bounds the body read for Fetch.
	maxListingSize int64
}

// Option configures a Client.
type Option func(*clientSettings)

// clientSettings collects option values before the Client is built.
// Proxy construction can fail, so options record intent and NewClient
// resolves them.
type clientSettings struct {
	timeout        time.Duration
	userAgent      string
	headers        map[string]string
	maxListingSize int64
	proxyAddress   string
	transport      http.RoundTripper
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *clientSettings) {
		s.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *clientSettings) {
		s.userAgent = ua
	}
}

// WithHeaders sets extra headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(s *clientSettings) {
		s.headers = headers
	}
}

// WithMaxListingSize bounds how many bytes of a listing page are read.
func WithMaxListingSize(size int64) Option {
	return func(s *clientSettings) {
		s.maxListingSize = size
	}
}

// WithSOCKS5Proxy routes all requests through a SOCKS5 proxy at the
// given "host:port" address.
func WithSOCKS5Proxy(address string) Option {
	return func(s *clientSettings) {
		s.proxyAddress = address
	}
}

// WithTransport replaces the HTTP transport. Used by tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *clientSettings) {
		s.transport = rt
	}
}

// NewClient creates a Client.
//
// Design decision: The constructor does not touch the network. It only
// validates the proxy address and builds the dialer, so a Client can be
// created before the remote site (or the proxy) is reachable.
func NewClient(opts ...Option) (*Client, error) {
	settings := &clientSettings{
		timeout:        DefaultTimeout,
		userAgent:      DefaultUserAgent,
		maxListingSize: DefaultMaxListingSize,
	}
	for _, opt := range opts {
		opt(settings)
	}

	transport := settings.transport
	if transport == nil && settings.proxyAddress != "" {
		if _, _, err := net.SplitHostPort(settings.proxyAddress); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, settings.proxyAddress)
		}
		dialer, err := proxy.SOCKS5("tcp", settings.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   settings.timeout,
			Transport: transport,
		},
		userAgent:      settings.userAgent,
		headers:        settings.headers,
		maxListingSize: settings.maxListingSize,
	}, nil
}

// get issues one GET request and returns the open response body.
// The caller owns the body and must close it.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, rawURL, resp.StatusCode)
	}
	return resp, nil
}

// Fetch retrieves a page and returns its body as UTF-8 text.
//
// The body is decoded according to the response Content-Type charset,
// so listings served as ISO-8859-1 (common on old mirror hosts) arrive
// as valid UTF-8.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, c.maxListingSize)
	decoded, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}
	return string(body), nil
}

// Download streams a URL into the file at dest, creating parent
// directories as needed, and returns the number of bytes written.
//
// A partially written file is removed on failure so an interrupted run
// never leaves a truncated file that looks complete.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}

	out, err := os.Create(dest) //nolint:gosec // Destination derives from the mirrored tree
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return written, fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return written, fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return written, nil
}

// RedactURL strips userinfo from a URL for log output.
func RedactURL(rawURL string) string {
	if !strings.Contains(rawURL, "@") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	u.User = nil
	return u.String()
}
