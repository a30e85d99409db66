package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"howett.net/plist"

	"loopfetch/internal/logging"
)

// Client performs the HTTP fetches behind feed resolution and package
// downloads. Every request carries the tool's fixed User-Agent.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client (primarily for tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient constructs a feed client.
func NewClient(userAgent string, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		httpClient: http.DefaultClient,
		userAgent:  userAgent,
		logger:     logging.NewComponentLogger(logger, "feed"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchCatalog downloads and decodes the master catalog.
func (c *Client) FetchCatalog(ctx context.Context, url string) (*Catalog, error) {
	data, err := c.fetchBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	var catalog Catalog
	if _, err := plist.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &catalog, nil
}

// FetchSubFeed downloads and decodes a sub-feed, falling back to the mirror
// URL when the primary fetch fails.
func (c *Client) FetchSubFeed(ctx context.Context, primaryURL, mirrorURL string) (*SubFeed, error) {
	data, err := c.fetchBytes(ctx, primaryURL)
	if err != nil {
		c.logger.Warn("primary sub-feed fetch failed, trying mirror",
			logging.Args(logging.String(logging.FieldURL, primaryURL), logging.Error(err))...)
		data, err = c.fetchBytes(ctx, mirrorURL)
		if err != nil {
			return nil, fmt.Errorf("fetch sub-feed (primary and mirror): %w", err)
		}
	}

	var subFeed SubFeed
	if _, err := plist.Unmarshal(data, &subFeed); err != nil {
		return nil, fmt.Errorf("decode sub-feed: %w", err)
	}
	return &subFeed, nil
}

// ProbeSize issues a HEAD request and returns the transfer length. Callers
// fall back to the catalog-declared size on any error.
func (c *Client) ProbeSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("no content length for %s", url)
	}
	return resp.ContentLength, nil
}

// Open starts a streaming GET and returns the body together with the
// reported content length (-1 when unknown). The caller owns the body.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status %s for %s", resp.Status, url)
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s for %s", resp.Status, url)
	}
	return io.ReadAll(resp.Body)
}
