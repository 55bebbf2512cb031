package classifieds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "Mozilla/5.0 (compatible; ListingChecker/1.0; +https://example.com)"

// Config holds the fetcher configuration.
type Config struct {
	UserAgent         string
	Timeout           time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64
	RespectRobots     bool
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// Fetcher downloads category index pages.
type Fetcher struct {
	client         *resty.Client
	userAgent      string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	limiter        *rate.Limiter
	robots         *RobotsChecker
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Fetcher {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Encoding", "gzip, br").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	f := &Fetcher{
		client:         client,
		userAgent:      userAgent,
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		limiter:        rate.NewLimiter(limit, 1),
		logger:         logger.With("component", "fetcher"),
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsChecker(client)
	}
	return f
}

// Fetch returns the HTML body of url. Transport errors and 5xx responses
// are retried; other non-2xx statuses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.robots != nil {
		allowed, err := f.robots.IsAllowed(ctx, f.userAgent, url)
		if err != nil {
			f.logger.Warn("robots.txt check failed, allowing request", "url", url, "error", err)
		} else if !allowed {
			return "", fmt.Errorf("blocked by robots.txt: %s", url)
		}
	}

	var body string
	var err error
	attempts := 0

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		attempts = attempt
		body, err = f.doRequest(ctx, url)
		if err == nil {
			return body, nil
		}

		if attempt == f.maxAttempts || !retryable(err) {
			break
		}

		backoff := f.calculateBackoff(attempt)
		f.logger.Warn("request failed, retrying",
			"url", url,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if attempts > 1 {
		return "", fmt.Errorf("after %d attempts: %w", attempts, err)
	}
	return "", err
}

func (f *Fetcher) doRequest(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return "", &StatusError{StatusCode: resp.StatusCode()}
	}

	body, err := readBody(raw, resp.Header().Get("Content-Encoding"))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	f.logger.Debug("fetched page", "url", url, "bytes", len(body))
	return string(body), nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	backoff := f.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if f.maxBackoff > 0 && backoff > f.maxBackoff {
		backoff = f.maxBackoff
	}
	return backoff
}
