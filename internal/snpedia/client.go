package snpedia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// DefaultBaseURL is SNPedia's bot-facing endpoint, which its usage policy
// directs automated clients to.
const DefaultBaseURL = "https://bots.snpedia.com"

// DefaultPace is the minimum delay between consecutive page requests.
const DefaultPace = 500 * time.Millisecond

// DefaultBatchCap bounds the number of page fetches per run.
const DefaultBatchCap = 100

// ErrNotFound means the identifier has no page on SNPedia. This is a normal
// terminal outcome, recorded so the identifier is not retried every run.
var ErrNotFound = errors.New("snpedia: page not found")

// ErrBatchLimit means the per-run fetch budget is exhausted. It ends a run
// cleanly; it is backpressure, not a failure.
var ErrBatchLimit = errors.New("snpedia: batch fetch limit reached")

// TransientError wraps a network or server-side failure that survived the
// in-run retries. The variant stays unattempted and is retried next run.
type TransientError struct {
	Rsid string
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient fetch error for %s: %v", e.Rsid, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Client fetches variant pages from SNPedia sequentially, pacing requests
// and enforcing a per-run fetch budget.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	pace        time.Duration
	remaining   int
	maxRetries  uint64
	lastRequest time.Time
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the SNPedia endpoint (used by tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithPace sets the minimum delay between consecutive requests.
func WithPace(d time.Duration) Option {
	return func(c *Client) { c.pace = d }
}

// WithBatchCap sets the per-run fetch budget.
func WithBatchCap(n int) Option {
	return func(c *Client) { c.remaining = n }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries bounds the in-run retries of a transient failure.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger sets the logger for retry warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a SNPedia page client with polite defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pace:       DefaultPace,
		remaining:  DefaultBatchCap,
		maxRetries: 3,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Remaining returns how many fetches are left in the run's budget.
func (c *Client) Remaining() int {
	return c.remaining
}

// Fetch retrieves and parses the page for one variant identifier.
// It returns ErrBatchLimit once the budget is spent, ErrNotFound for
// identifiers without a page, and a *TransientError after bounded retries
// of network or server failures.
func (c *Client) Fetch(ctx context.Context, rsid string) (*Annotation, error) {
	if c.remaining <= 0 {
		return nil, ErrBatchLimit
	}
	c.remaining--

	c.waitPace(ctx)

	url := fmt.Sprintf("%s/index.php/%s", c.baseURL, rsid)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("snpedia request failed, retrying",
				zap.String("rsid", rsid), zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			c.logger.Warn("snpedia server error, retrying",
				zap.String("rsid", rsid), zap.Int("status", resp.StatusCode))
			return fmt.Errorf("http status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("http status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &TransientError{Rsid: rsid, Err: err}
	}

	if IsMissingPage(body) {
		return nil, ErrNotFound
	}

	ann, err := ParsePage(rsid, bytes.NewReader(body))
	if err != nil {
		return nil, &TransientError{Rsid: rsid, Err: err}
	}
	return ann, nil
}

// waitPace blocks until the politeness interval since the previous request
// has elapsed.
func (c *Client) waitPace(ctx context.Context) {
	if !c.lastRequest.IsZero() {
		if wait := c.pace - time.Since(c.lastRequest); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
			}
		}
	}
	c.lastRequest = time.Now()
}
