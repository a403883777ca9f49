// Package validate checks whether cited pages actually back the sentences
// that rely on them.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/gwaln/internal/cache"
	"github.com/ppiankov/gwaln/internal/extract"
	"github.com/ppiankov/gwaln/internal/logging"
	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/textsim"
	"github.com/ppiankov/gwaln/internal/util"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// stopWords never count towards coverage
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "was": true, "were": true, "are": true,
	"has": true, "had": true, "have": true, "with": true, "that": true, "this": true,
	"from": true, "its": true, "his": true, "her": true, "their": true, "which": true,
	"who": true, "not": true, "but": true, "also": true, "into": true, "than": true,
	"been": true, "being": true, "they": true, "she": true, "him": true, "them": true,
}

// CitationVerifier fetches cited pages and scores how well they cover each
// sentence. Pages are fetched once per verifier and shared across sentences.
type CitationVerifier struct {
	httpClient *http.Client
	maxWorkers int
	threshold  float64
	maxBytes   int64
	userAgent  string
	authority  *AuthorityClassifier
	robots     *util.RobotsChecker
	limiter    *util.Limiter
	pages      *cache.MemoryCache
}

// NewCitationVerifier builds a verifier from the citations, http,
// rate_limiting and authority config sections. The limiter may be shared
// with other fetchers; nil creates one from config.
func NewCitationVerifier(cfg *model.Config, limiter *util.Limiter) *CitationVerifier {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	cc := cfg.Citations

	maxWorkers := cc.Workers
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	threshold := cc.SupportThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	maxBytes := cc.MaxPageBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	if limiter == nil {
		limiter = util.NewLimiterFromConfig(cfg.RateLimiting)
	}

	client := util.NewHTTPClient(util.ClientOptions{
		Timeout:     cc.Timeout,
		InsecureTLS: cfg.HTTP.InsecureTLS,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		NoProxy:     cfg.HTTP.NoProxy,
	})
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	v := &CitationVerifier{
		httpClient: client,
		maxWorkers: maxWorkers,
		threshold:  threshold,
		maxBytes:   maxBytes,
		userAgent:  cfg.HTTP.UserAgent,
		authority:  NewAuthorityClassifier(&cfg.Authority),
		limiter:    limiter,
		pages:      cache.NewMemoryCache(time.Hour, 10*time.Minute),
	}
	if cc.RespectRobots {
		v.robots = util.NewRobotsChecker(client, cfg.HTTP.UserAgent)
	}
	return v
}

// page is one fetched citation
type page struct {
	url   string
	tier  model.AuthorityTier
	words map[string]bool
	err   error
}

// Verify checks each sentence against the citation URLs and returns one
// result per sentence, in order. Unreachable pages never fail the call.
func (v *CitationVerifier) Verify(ctx context.Context, sentences []string, urls []string) []model.CitationVerification {
	if len(sentences) == 0 {
		return nil
	}

	results := make([]model.CitationVerification, len(sentences))
	if len(urls) == 0 {
		for i, s := range sentences {
			results[i] = model.CitationVerification{
				Sentence: s,
				Status:   model.CitationUnsupported,
				Message:  "no citations available",
			}
		}
		return results
	}

	pages := v.fetchAll(ctx, urls)
	for i, s := range sentences {
		results[i] = v.judge(s, pages)
	}
	logging.Debug("citations verified", "sentences", len(sentences), "urls", len(urls), "pages_cached", v.pages.Len())
	return results
}

// fetchAll fetches every URL concurrently, bounded by maxWorkers
func (v *CitationVerifier) fetchAll(ctx context.Context, urls []string) []page {
	pages := make([]page, len(urls))
	var wg sync.WaitGroup

	// Create semaphore to limit concurrent requests
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			pages[idx] = page{url: rawURL, tier: v.authority.Classify(rawURL)}

			select {
			case <-ctx.Done():
				pages[idx].err = ctx.Err()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			text, err := v.pages.Remember(cache.CacheKey(rawURL), func() ([]byte, error) {
				t, err := v.fetchWithRetry(ctx, rawURL)
				return []byte(t), err
			})
			if err != nil {
				logging.Debug("citation unreachable", "url", rawURL, "err", err)
				pages[idx].err = err
				return
			}
			pages[idx].words = wordSet(extract.Words(string(text)))
		}(i, u)
	}

	wg.Wait()
	return pages
}

// judge picks the best-covering reachable page. Ties go to the higher
// authority tier, then to the earlier URL.
func (v *CitationVerifier) judge(sentence string, pages []page) model.CitationVerification {
	result := model.CitationVerification{Sentence: sentence}

	terms := sentenceTerms(sentence)
	if len(terms) == 0 {
		result.Status = model.CitationUnsupported
		result.Message = "sentence has no checkable terms"
		return result
	}

	best := -1
	bestCoverage := 0.0
	var firstErr error
	for i, p := range pages {
		if p.err != nil {
			if firstErr == nil {
				firstErr = p.err
			}
			continue
		}
		c := coverage(terms, p.words)
		if best < 0 || c > bestCoverage || (c == bestCoverage && p.tier < pages[best].tier) {
			best, bestCoverage = i, c
		}
	}

	if best < 0 {
		result.Status = model.CitationError
		result.Message = fmt.Sprintf("no citation reachable: %v", firstErr)
		return result
	}

	result.Coverage = textsim.Round3(bestCoverage)
	if bestCoverage >= v.threshold {
		result.Status = model.CitationSupported
		result.SupportingURL = pages[best].url
		result.Authority = pages[best].tier.String()
		return result
	}

	result.Status = model.CitationUnsupported
	result.Message = fmt.Sprintf("best coverage %.3f below %.2f (%s)", bestCoverage, v.threshold, pages[best].url)
	return result
}

// fetchWithRetry retries transient failures with exponential backoff
func (v *CitationVerifier) fetchWithRetry(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		text, err := v.fetchPage(ctx, rawURL)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			break
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return "", lastErr
}

// statusError is a non-2xx citation response
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}

// fetchPage downloads one citation and returns its visible text
func (v *CitationVerifier) fetchPage(ctx context.Context, rawURL string) (string, error) {
	if v.robots != nil {
		allowed, delay, err := v.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", fmt.Errorf("disallowed by robots.txt")
		}
		v.limiter.RespectCrawlDelay(rawURL, delay)
	}
	if err := v.limiter.Wait(ctx, rawURL); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", v.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, v.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		return string(body), nil
	}
	text, err := extract.VisibleText(string(body))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	return text, nil
}

// isRetryableError reports transient failures: 5xx, 429 and network errors
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || (se.code >= 500 && se.code < 600)
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

// sentenceTerms returns the distinct content words of a sentence
func sentenceTerms(sentence string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range extract.Words(sentence) {
		if stopWords[w] || seen[w] || (len([]rune(w)) < 3 && !isNumeric(w)) {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

func coverage(terms []string, words map[string]bool) float64 {
	found := 0
	for _, t := range terms {
		if words[t] {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func isNumeric(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return w != ""
}
