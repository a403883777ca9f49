package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers robots.txt questions for citation and source fetches.
// Each origin's robots.txt is fetched once per checker.
type RobotsChecker struct {
	cache      map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
	agentToken string
}

// NewRobotsChecker creates a checker that fetches robots.txt through client
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: client,
		userAgent:  userAgent,
		agentToken: NormalizeUserAgent(userAgent),
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt.
// Returns (allowed, crawlDelay, error). An unreachable or unparseable
// robots.txt allows everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return false, 0, fmt.Errorf("no host in %q", rawURL)
	}

	origin := parsed.Scheme + "://" + parsed.Host
	data, err := r.robotsFor(ctx, origin)
	if err != nil {
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	var crawlDelay time.Duration
	if group := data.FindGroup(r.agentToken); group != nil {
		crawlDelay = group.CrawlDelay
	}

	return data.TestAgent(path, r.agentToken), crawlDelay, nil
}

func (r *RobotsChecker) robotsFor(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, exists := r.cache[origin]
	r.mu.RUnlock()

	if exists {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[origin] = data
	r.mu.Unlock()

	return data, nil
}

// NormalizeUserAgent reduces a user agent to the product token robots.txt
// groups are matched against ("gwaln/0.2 (+url)" -> "gwaln")
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
