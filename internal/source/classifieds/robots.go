package classifieds

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
)

// RobotsChecker caches robots.txt rules per origin.
type RobotsChecker struct {
	client   *resty.Client
	cacheTTL time.Duration

	mu     sync.Mutex
	rules  map[string]*robotstxt.RobotsData
	expiry map[string]time.Time
}

func NewRobotsChecker(client *resty.Client) *RobotsChecker {
	return &RobotsChecker{
		client:   client,
		cacheTTL: time.Hour,
		rules:    make(map[string]*robotstxt.RobotsData),
		expiry:   make(map[string]time.Time),
	}
}

// IsAllowed reports whether userAgent may fetch rawURL.
func (r *RobotsChecker) IsAllowed(ctx context.Context, userAgent, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, err
	}

	data, err := r.get(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return false, err
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, userAgent), nil
}

func (r *RobotsChecker) get(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.rules[origin]; ok && time.Now().Before(r.expiry[origin]) {
		return data, nil
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Accept-Encoding", "gzip").
		Get(origin + "/robots.txt")
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode(), resp.Body())
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.rules[origin] = data
	r.expiry[origin] = time.Now().Add(r.cacheTTL)
	return data, nil
}
