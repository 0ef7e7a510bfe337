package helium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/screwyprof/hnttax/pkg/clock"
	"github.com/screwyprof/hnttax/pkg/metrics"
)

// Default client configuration values
const (
	DefaultBaseURL     = "https://api.helium.io/v1"
	DefaultUserAgent   = "hnttax/1.0 (+https://github.com/screwyprof/hnttax)"
	DefaultMaxAttempts = 5
	DefaultMaxPages    = 10000
	DefaultTimeout     = 30 * time.Second

	// maxJitter is the random delay added on top of the exponential backoff
	maxJitter = 10 * time.Millisecond
)

// Clock abstracts time for production and testing
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// Config is the immutable configuration of a Client.
// Zero values are replaced with defaults by NewClient.
type Config struct {
	BaseURL   string
	UserAgent string
	// MaxAttempts bounds the number of tries for a single request, first try included
	MaxAttempts int
	// MaxPages bounds the number of cursor pages walked by a single reward query
	MaxPages int
	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	return c
}

// Option configures the Client
type Option func(*Client)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(cl *Client) { cl.clock = c }
}

// WithLogger sets the logger used to report retries
func WithLogger(log *slog.Logger) Option {
	return func(cl *Client) { cl.log = log }
}

// WithMetrics enables upstream request instrumentation
func WithMetrics(m *metrics.Upstream) Option {
	return func(cl *Client) { cl.metrics = m }
}

// Client represents a Helium API client
type Client struct {
	httpClient *http.Client
	cfg        Config
	clock      Clock
	limiter    *rate.Limiter
	log        *slog.Logger
	metrics    *metrics.Upstream
}

// NewClient creates a new Helium API client with custom HTTP client and configuration
func NewClient(httpClient *http.Client, cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		httpClient: httpClient,
		cfg:        cfg,
		clock:      clock.SystemClock{},
		limiter:    rate.NewLimiter(limit, 1),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective client configuration
func (c *Client) Config() Config {
	return c.cfg
}

// get requests url and decodes the JSON body into out.
// Transient failures are retried with exponential backoff up to MaxAttempts.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		body, err := c.do(ctx, endpoint, url)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, url, err)
			}
			return nil
		}
		if !isTransient(err) || ctx.Err() != nil {
			return err
		}
		lastErr = err

		if attempt == c.cfg.MaxAttempts {
			break
		}

		c.log.WarnContext(ctx, "Helium request failed, retrying",
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if c.metrics != nil {
			c.metrics.Retries.WithLabelValues(endpoint).Inc()
		}

		if err := clock.Sleep(ctx, c.clock, backoff(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %s after %d attempts: %w", ErrTransientUpstream, url, c.cfg.MaxAttempts, lastErr)
}

// do performs a single GET and returns the raw body of a 2xx response
func (c *Client) do(ctx context.Context, endpoint, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "transport_error")
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	c.observe(endpoint, http.StatusText(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: url, Body: body}
	}

	return body, nil
}

func (c *Client) observe(endpoint, status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.Requests.WithLabelValues(endpoint, status).Inc()
}

// backoff returns 2^attempt seconds plus a small random jitter
func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt)*time.Second + rand.N(maxJitter)
}

// isTransient reports whether err is worth retrying
func isTransient(err error) bool {
	var tErr *transportError
	if errors.As(err, &tErr) {
		return true
	}
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.Temporary()
	}
	return false
}
