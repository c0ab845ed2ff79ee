// Package fetch provides the upstream clients for DefiLlama, Hyperliquid and
// Snapshot. Responses are cached by exact request identity and each provider
// sits behind its own circuit breaker.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/protocol-risk/internal/cache"
	"github.com/yourorg/protocol-risk/internal/circuitbreaker"
	"github.com/yourorg/protocol-risk/internal/metrics"
	"github.com/yourorg/protocol-risk/internal/model"
	"github.com/yourorg/protocol-risk/internal/telemetry"
)

// maxBodyBytes bounds a single upstream response. The full protocol list
// is the largest payload at a few tens of megabytes.
const maxBodyBytes = 128 << 20

// Options tunes the HTTP policy of a provider client.
type Options struct {
	Timeout         time.Duration
	RetryMax        int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	BreakerFailures int
	BreakerReset    time.Duration
}

// DefaultOptions mirrors the server defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:         10 * time.Second,
		RetryMax:        3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    3 * time.Second,
		BreakerFailures: 3,
		BreakerReset:    time.Minute,
	}
}

// Client performs cached JSON requests against one provider.
type Client struct {
	provider   string
	httpClient *http.Client
	cache      *cache.TTL[[]byte]
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a provider client sharing the given response cache.
func NewClient(provider string, responses *cache.TTL[[]byte], opts Options) *Client {
	breaker := circuitbreaker.New(circuitbreaker.Options{
		Name:             provider,
		FailureThreshold: opts.BreakerFailures,
		ResetDelay:       opts.BreakerReset,
	})
	return &Client{
		provider:   provider,
		httpClient: newRetryClient(opts).StandardClient(),
		cache:      responses,
		breaker:    breaker,
	}
}

// newRetryClient creates a new HTTP client with retry capabilities
func newRetryClient(opts Options) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		c.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		c.RetryWaitMax = opts.RetryWaitMax
	}
	c.HTTPClient.Timeout = opts.Timeout
	c.Logger = nil
	return c
}

// Provider returns the provider name used in logs and metrics.
func (c *Client) Provider() string {
	return c.provider
}

// Breaker exposes the provider's circuit breaker for the status endpoints.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, out)
}

// PostJSON posts body as JSON and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", c.provider, err)
	}
	return c.doJSON(ctx, http.MethodPost, url, payload, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	raw, err := c.do(ctx, method, url, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.provider, err)
	}
	return nil
}

// requestKey identifies a request for caching: method and full URL, plus
// the body for POST command envelopes.
func requestKey(method, url string, body []byte) string {
	if len(body) == 0 {
		return method + " " + url
	}
	return method + " " + url + "\n" + string(body)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	key := requestKey(method, url, body)
	if cached, ok := c.cache.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues(c.provider).Inc()
		return cached, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(c.provider).Inc()

	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "fetch."+c.provider, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
	))
	defer span.End()

	start := time.Now()
	raw, status, err := c.roundTrip(ctx, method, url, body)
	metrics.UpstreamDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(c.provider, strconv.Itoa(status)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", status))

	switch {
	case err == nil:
		c.breaker.RecordSuccess()
	case errors.Is(err, model.ErrNotFound), errors.Is(err, context.Canceled):
		// the upstream answered or the caller gave up; neither is an outage
	default:
		c.breaker.RecordFailure(err)
	}
	metrics.BreakerState.WithLabelValues(c.provider).Set(float64(c.breaker.GetState()))

	if err != nil {
		telemetry.RecordError(ctx, err)
		logrus.WithFields(logrus.Fields{
			"provider": c.provider,
			"method":   method,
			"url":      url,
			"status":   status,
		}).WithError(err).Debug("Upstream request failed")
		return nil, err
	}

	c.cache.Put(key, raw)
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, method, url string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("error fetching data from %s: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("error reading %s response: %w", c.provider, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, fmt.Errorf("%s %s: %w", c.provider, url, model.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, resp.StatusCode, fmt.Errorf("%s API error: status %d, body: %s", c.provider, resp.StatusCode, truncate(raw, 256))
	}
	return raw, resp.StatusCode, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
