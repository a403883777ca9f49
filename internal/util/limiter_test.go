package util

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/gwaln/internal/model"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiterFromConfig(model.RateLimitConfig{RequestsPerSecond: 10, BurstSize: -1})
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://en.wikipedia.org/wiki/Go"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// www. and port variants share the bucket
	if limiter.Allow("https://WWW.example.com:8443/page") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}
	if !limiter.Allow("http://other.com") {
		t.Errorf("expected allow for other domain")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("http://example.com") {
			t.Fatalf("request %d should pass with pacing disabled", i)
		}
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetDomainRate("Slow.com", 0.1, 1)

	if !limiter.Allow("http://slow.com") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://slow.com/again") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://fast.com") {
		t.Errorf("other domain should pass")
	}
}

func TestLimiter_PerDomainFromConfig(t *testing.T) {
	limiter := NewLimiterFromConfig(model.RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         1,
		PerDomain:         map[string]float64{"www.archive.org": 0.1},
	})

	if !limiter.Allow("https://archive.org/details/x") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("https://archive.org/details/y") {
		t.Errorf("second request to the slowed domain should fail")
	}
}

func TestLimiter_RespectCrawlDelay(t *testing.T) {
	limiter := NewLimiter(100, 5)
	limiter.RespectCrawlDelay("http://polite.org/a", time.Hour)

	if !limiter.Allow("http://polite.org/b") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://polite.org/c") {
		t.Errorf("crawl delay should block the second request")
	}

	// A looser delay never speeds a host up
	limiter.RespectCrawlDelay("http://polite.org", time.Millisecond)
	if limiter.Allow("http://polite.org/d") {
		t.Errorf("looser crawl delay must not raise the rate")
	}
}

func TestHostKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://example.com/foo", "example.com"},
		{"https://www.Example.com:443/x", "example.com"},
		{"http://127.0.0.1:8080", "127.0.0.1"},
	}
	for _, tt := range tests {
		got, err := hostKey(tt.in)
		if err != nil {
			t.Fatalf("hostKey(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("hostKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := hostKey("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
