package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/gwaln/internal/logging"
	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/util"
)

const fetchMaxRetries = 3

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// Fetcher downloads article sources over HTTP
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *util.Limiter
}

// NewFetcher creates a fetcher from the http config section. limiter may be nil.
func NewFetcher(cfg model.HTTPConfig, limiter *util.Limiter) *Fetcher {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}

	client := util.NewHTTPClient(util.ClientOptions{
		Timeout:     cfg.Timeout,
		InsecureTLS: cfg.InsecureTLS,
		HTTPProxy:   cfg.HTTPProxy,
		HTTPSProxy:  cfg.HTTPSProxy,
		NoProxy:     cfg.NoProxy,
	})
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return fmt.Errorf("stopped after 5 redirects")
		}
		return nil
	}

	return &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		limiter:    limiter,
	}
}

// FetchResult contains the fetched body and metadata
type FetchResult struct {
	Body        string
	ContentType string
	StatusCode  int
	FinalURL    string
}

// Fetch retrieves the content at rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/markdown,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries transient failures with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
		if attempt < fetchMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			logging.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "backoff", backoff, "err", err)
			fetchSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

// isRetryableFetchError returns true for 5xx, 429 and transient network errors
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "unexpected status: 5") || strings.Contains(s, "unexpected status: 429") {
		return true
	}
	s = strings.ToLower(s)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
