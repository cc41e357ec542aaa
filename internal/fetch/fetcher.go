// Package fetch retrieves the ranking page over HTTP. It drives a Colly
// collector through a Cloudflare-bypass transport with a browser-like
// request profile, and retries transient failures with jittered
// exponential backoff.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultAcceptLanguage = "en-US,en;q=0.9,ru;q=0.8"
	defaultTimeout        = 30 * time.Second
)

// ErrExhausted marks a fetch that failed on every allowed attempt.
var ErrExhausted = errors.New("all fetch attempts failed")

// Error describes a failed fetch, including how far the retry loop got.
type Error struct {
	URL        string
	Attempts   int
	LastStatus int
	Err        error
}

func (e *Error) Error() string {
	if e.LastStatus > 0 {
		return fmt.Sprintf("fetch %s: %d attempt(s), last status %d: %v", e.URL, e.Attempts, e.LastStatus, e.Err)
	}
	return fmt.Sprintf("fetch %s: %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config controls collector behavior.
type Config struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	Policy         Policy
}

// Client fetches a single page with retries. Safe for sequential reuse;
// each attempt runs on a clone of the base collector.
type Client struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Client. A nil logger falls back to zap.NewNop.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = defaultAcceptLanguage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Synchronous collection is colly's default; passing colly.Async(false)
	// would enable async on colly < v2.2.0, which ignores the argument.
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(cloudflarebp.AddCloudFlareByPass(newHTTPTransport()))

	return &Client{cfg: cfg, base: c, logger: logger}
}

// Fetch performs an HTTP GET for url, retrying per the configured policy.
// It returns the response body on the first successful attempt, or an
// *Error wrapping ErrExhausted once the policy is spent. Non-retryable
// responses fail immediately.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt < c.cfg.Policy.MaxAttempts; attempt++ {
		body, status, err := c.attempt(ctx, url)
		if err == nil && status/100 == 2 && len(strings.TrimSpace(string(body))) > 0 {
			return body, nil
		}

		lastStatus = status
		switch {
		case err != nil:
			lastErr = err
		case status/100 != 2:
			lastErr = fmt.Errorf("unexpected status %d", status)
		default:
			lastErr = fmt.Errorf("status %d with blank body", status)
		}
		if ctx.Err() != nil {
			return nil, &Error{URL: url, Attempts: attempt + 1, LastStatus: status, Err: ctx.Err()}
		}
		if !retryable(status, err, body) {
			return nil, &Error{URL: url, Attempts: attempt + 1, LastStatus: status, Err: lastErr}
		}

		if attempt < c.cfg.Policy.MaxAttempts-1 {
			wait := c.cfg.Policy.Backoff(attempt)
			c.logger.Warn("fetch attempt failed",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Int("status", status),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)
			if err := sleep(ctx, wait); err != nil {
				return nil, &Error{URL: url, Attempts: attempt + 1, LastStatus: status, Err: err}
			}
		}
	}

	return nil, &Error{
		URL:        url,
		Attempts:   c.cfg.Policy.MaxAttempts,
		LastStatus: lastStatus,
		Err:        fmt.Errorf("%w: %v", ErrExhausted, lastErr),
	}
}

// retryable reports whether another attempt may help. Anti-bot blocks
// (403), throttling (429), server errors, transport failures and blank
// bodies are all transient; any other status with a real body is not.
func retryable(status int, err error, body []byte) bool {
	if err != nil {
		return true
	}
	switch {
	case status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	case len(strings.TrimSpace(string(body))) == 0:
		return true
	case status/100 != 2:
		return false
	}
	return false
}

// attempt runs one GET on a collector clone and reports body, status and
// transport error. A non-2xx status is not an error here; classification
// happens in Fetch.
func (c *Client) attempt(ctx context.Context, url string) ([]byte, int, error) {
	collector := c.base.Clone()
	collector.UserAgent = c.cfg.UserAgent
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", c.cfg.AcceptLanguage)
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
			body = append([]byte(nil), r.Body...)
		}
		fetchErr = err
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := collector.Visit(url); err != nil && fetchErr == nil {
			fetchErr = err
		}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case <-done:
	}

	// Colly reports HTTP status errors through OnError; keep the status
	// and let the caller classify instead of treating them as transport
	// failures.
	if fetchErr != nil && status > 0 {
		return body, status, nil
	}
	return body, status, fetchErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
