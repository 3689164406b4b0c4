package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/openparl/parlsearch/internal/logger"
)

const (
	// DefaultTimeout is the per-request HTTP timeout. Timeouts are per
	// network call, not per run.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries, doubled per
	// attempt.
	RetryDelay = time.Second

	// maxErrorBody bounds how much of an error response is kept for
	// diagnostics.
	maxErrorBody = 512

	userAgent = "parlsearch"
)

// Client is a rate-limited, retrying JSON GET client shared by the
// upstream connectors.
type Client struct {
	http       *http.Client
	limiter    *Limiter
	maxRetries int
	retryDelay time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetry overrides the retry ceiling and initial delay.
func WithRetry(maxRetries int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// NewClient creates a client using the given limiter. The limiter must
// be the instance dedicated to the upstream API this client talks to.
func NewClient(limiter *Limiter, opts ...ClientOption) *Client {
	c := &Client{
		http:       &http.Client{Timeout: DefaultTimeout},
		limiter:    limiter,
		maxRetries: MaxRetries,
		retryDelay: RetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches rawURL with the given query parameters and decodes the
// JSON response into out. Retryable failures (network errors, 429, 5xx)
// are retried with exponential backoff up to the attempt ceiling; the
// last error is returned on exhaustion. Other 4xx responses fail
// immediately with a RejectedError.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay << (attempt - 1)
			logger.Debug("Retrying %s in %s (attempt %d/%d)", rawURL, delay, attempt, c.maxRetries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.getOnce(ctx, rawURL, params, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

func (c *Client) getOnce(ctx context.Context, rawURL string, params url.Values, out any) error {
	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	u := rawURL
	if len(params) > 0 {
		u = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       string(body),
		}
		if statusErr.Retryable() {
			return statusErr
		}
		return &RejectedError{Status: statusErr}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
