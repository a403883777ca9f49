package util

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/gwaln/internal/model"
	"golang.org/x/time/rate"
)

// Limiter paces outbound requests per host. Sources and citation pages
// share one Limiter so a host cited by many articles is not hammered.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter. A non-positive rate disables pacing.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// NewLimiterFromConfig creates a limiter from the rate_limiting section
func NewLimiterFromConfig(cfg model.RateLimitConfig) *Limiter {
	l := NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for domain, rps := range cfg.PerDomain {
		l.SetDomainRate(domain, rps, cfg.BurstSize)
	}
	return l
}

// Wait blocks until the URL's host may be contacted again
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostKey(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(host).Wait(ctx)
}

// Allow reports whether a request to the URL's host may go out now
func (l *Limiter) Allow(rawURL string) bool {
	host, err := hostKey(rawURL)
	if err != nil {
		return false
	}
	return l.forHost(host).Allow()
}

// SetDomainRate overrides the rate for one host
func (l *Limiter) SetDomainRate(host string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[normalizeHost(host)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// RespectCrawlDelay slows the URL's host to one request per delay when that
// is stricter than its current rate. Zero delays are ignored.
func (l *Limiter) RespectCrawlDelay(rawURL string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	host, err := hostKey(rawURL)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.defaultRate
	if limiter, ok := l.limiters[host]; ok {
		current = limiter.Limit()
	}
	if crawl := rate.Every(delay); crawl < current {
		l.limiters[host] = rate.NewLimiter(crawl, 1)
	}
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[host] = limiter
	}
	return limiter
}

// hostKey maps a URL to its limiter key: lower-cased host, no port, no "www."
func hostKey(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return normalizeHost(parsed.Hostname()), nil
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
