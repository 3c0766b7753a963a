// Package backend is the HTTP client for the external detection backend: three
// snapshot feeds and the start/stop control commands.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Purav30803/nds-client/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	pathStart     = "/start"
	pathStop      = "/stop"
	pathLogs      = "/logs"
	pathAnomalies = "/anomalies"
	pathDPIAlerts = "/dpi_alerts"

	// Bodies larger than this are treated as malformed.
	maxBodyBytes = 8 << 20
)

var (
	// ErrUnexpectedStatus - backend answered with a non-2xx code
	ErrUnexpectedStatus = errors.New("backend: unexpected status")

	// ErrMalformedPayload - body is not the expected JSON envelope
	ErrMalformedPayload = errors.New("backend: malformed payload")
)

type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	fetchTimeout   time.Duration
	controlTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithFetchTimeout bounds one FetchAll call, all three feeds included.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.fetchTimeout = d
	}
}

func WithControlTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.controlTimeout = d
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend address: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend address: %q is not absolute", baseURL)
	}

	c := &Client{
		baseURL:        u,
		httpClient:     &http.Client{},
		fetchTimeout:   1500 * time.Millisecond,
		controlTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// HTTPClient exposes the underlying client, mainly for test transports.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Start asks the backend to begin detection. The response body is ignored.
func (c *Client) Start(ctx context.Context) error {
	return c.command(ctx, pathStart)
}

// Stop asks the backend to halt detection. The response body is ignored.
func (c *Client) Stop(ctx context.Context) error {
	return c.command(ctx, pathStop)
}

func (c *Client) FetchThreats(ctx context.Context) ([]models.Event, error) {
	return fetchFeed[threatItem](ctx, c, pathLogs, keyLogs)
}

func (c *Client) FetchAnomalies(ctx context.Context) ([]models.Event, error) {
	return fetchFeed[anomalyItem](ctx, c, pathAnomalies, keyAnomalies)
}

func (c *Client) FetchDPIAlerts(ctx context.Context) ([]models.Event, error) {
	return fetchFeed[dpiItem](ctx, c, pathDPIAlerts, keyDPIAlerts)
}

// fetchFeed reads one envelope. A missing key is malformed; a null list is an empty feed.
func fetchFeed[T wireItem](ctx context.Context, c *Client, path, key string) ([]models.Event, error) {
	var envelope map[string]json.RawMessage
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, err
	}

	raw, ok := envelope[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing %q", ErrMalformedPayload, path, key)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, path, err)
	}

	return convert(items), nil
}

// FetchAll pulls the three feeds concurrently. If any feed fails the whole call
// fails and no partial result is returned. Feeds keep the backend's order.
func (c *Client) FetchAll(ctx context.Context) (models.Feeds, error) {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	var feeds models.Feeds
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := c.FetchThreats(gctx)
		feeds.Threats = events
		return err
	})
	g.Go(func() error {
		events, err := c.FetchAnomalies(gctx)
		feeds.Anomalies = events
		return err
	})
	g.Go(func() error {
		events, err := c.FetchDPIAlerts(gctx)
		feeds.DPIAlerts = events
		return err
	})

	if err := g.Wait(); err != nil {
		return models.Feeds{}, err
	}

	return feeds, nil
}

func (c *Client) command(ctx context.Context, path string) error {
	if c.controlTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.controlTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, path, err)
	}

	return nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}
