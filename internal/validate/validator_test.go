package validate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/gwaln/internal/model"
)

func init() {
	// Disable retry sleep in all tests for fast execution
	validateSleepFunc = func(d time.Duration) {}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Citations.Timeout = 5 * time.Second
	cfg.Citations.RespectRobots = false
	cfg.RateLimiting.RequestsPerSecond = 0
	return cfg
}

const marsPage = `<html><head><title>Mars</title><script>var hidden = "volcano";</script></head>
<body><p>Olympus Mons is the tallest volcano on Mars, rising about 22 kilometres.</p></body></html>`

func TestCitationVerifier_Supported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(marsPage))
	}))
	defer server.Close()

	v := NewCitationVerifier(testConfig(), nil)
	got := v.Verify(context.Background(), []string{"Olympus Mons is the tallest volcano on Mars."}, []string{server.URL + "/mars"})

	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	r := got[0]
	if r.Status != model.CitationSupported {
		t.Fatalf("expected supported, got %+v", r)
	}
	if r.SupportingURL != server.URL+"/mars" {
		t.Errorf("unexpected supporting URL %s", r.SupportingURL)
	}
	if r.Coverage != 1 {
		t.Errorf("expected full coverage, got %v", r.Coverage)
	}
	if r.Authority != "tertiary" {
		t.Errorf("expected tertiary authority, got %s", r.Authority)
	}
}

func TestCitationVerifier_Unsupported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(marsPage))
	}))
	defer server.Close()

	v := NewCitationVerifier(testConfig(), nil)
	got := v.Verify(context.Background(), []string{"Jupiter hosts the Great Red Spot storm."}, []string{server.URL})

	if got[0].Status != model.CitationUnsupported {
		t.Errorf("expected unsupported, got %+v", got[0])
	}
	if got[0].SupportingURL != "" {
		t.Errorf("unsupported result should carry no supporting URL")
	}
	if !strings.Contains(got[0].Message, "below") {
		t.Errorf("unexpected message %q", got[0].Message)
	}
}

func TestCitationVerifier_NoURLs(t *testing.T) {
	v := NewCitationVerifier(testConfig(), nil)
	got := v.Verify(context.Background(), []string{"a", "b"}, nil)

	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, r := range got {
		if r.Status != model.CitationUnsupported {
			t.Errorf("expected unsupported, got %s", r.Status)
		}
	}
}

func TestCitationVerifier_NoSentences(t *testing.T) {
	v := NewCitationVerifier(testConfig(), nil)
	if got := v.Verify(context.Background(), nil, []string{"https://example.com"}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestCitationVerifier_UnreachableIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	v := NewCitationVerifier(testConfig(), nil)
	got := v.Verify(context.Background(), []string{"Olympus Mons is tall."}, []string{server.URL + "/gone"})

	if got[0].Status != model.CitationError {
		t.Fatalf("expected error status, got %+v", got[0])
	}
	if !strings.Contains(got[0].Message, "404") {
		t.Errorf("expected message to mention 404, got %q", got[0].Message)
	}
}

func TestCitationVerifier_PrefersCoverageThenAuthority(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/partial":
			_, _ = w.Write([]byte("<p>Olympus Mons volcano.</p>"))
		default:
			_, _ = w.Write([]byte(marsPage))
		}
	}))
	defer server.Close()

	cfg := testConfig()
	host := strings.TrimPrefix(server.URL, "http://")
	host = host[:strings.Index(host, ":")]
	cfg.Authority.DomainMap = map[string]string{host: "primary"}

	v := NewCitationVerifier(cfg, nil)
	urls := []string{server.URL + "/partial", server.URL + "/full-a", server.URL + "/full-b"}
	got := v.Verify(context.Background(), []string{"Olympus Mons is the tallest volcano on Mars."}, urls)

	// full-a and full-b tie on coverage and tier; the earlier one wins
	if got[0].SupportingURL != server.URL+"/full-a" {
		t.Errorf("expected /full-a, got %s", got[0].SupportingURL)
	}
	if got[0].Authority != "primary" {
		t.Errorf("expected primary authority, got %s", got[0].Authority)
	}
}

func TestCitationVerifier_FetchesEachURLOnce(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(marsPage))
	}))
	defer server.Close()

	v := NewCitationVerifier(testConfig(), nil)
	sentences := []string{"Olympus Mons is tall.", "Mars has a volcano.", "Something else entirely."}
	_ = v.Verify(context.Background(), sentences, []string{server.URL})
	_ = v.Verify(context.Background(), sentences, []string{server.URL})

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestCitationVerifier_RetriesTransientFailures(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(marsPage))
	}))
	defer server.Close()

	v := NewCitationVerifier(testConfig(), nil)
	got := v.Verify(context.Background(), []string{"Olympus Mons is the tallest volcano."}, []string{server.URL})

	if got[0].Status != model.CitationSupported {
		t.Errorf("expected supported after retries, got %+v", got[0])
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestCitationVerifier_PermanentFailureNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	v := NewCitationVerifier(testConfig(), nil)
	_ = v.Verify(context.Background(), []string{"Olympus Mons."}, []string{server.URL})

	if n := atomic.LoadInt32(&attempts); n != 1 {
		t.Errorf("expected 1 attempt, got %d", n)
	}
}

func TestCitationVerifier_RespectsRobots(t *testing.T) {
	var pageHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		atomic.AddInt32(&pageHits, 1)
		_, _ = w.Write([]byte(marsPage))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Citations.RespectRobots = true
	v := NewCitationVerifier(cfg, nil)

	got := v.Verify(context.Background(), []string{"Olympus Mons is the tallest volcano."}, []string{server.URL + "/private/mars"})

	if got[0].Status != model.CitationError || !strings.Contains(got[0].Message, "robots.txt") {
		t.Errorf("expected robots error, got %+v", got[0])
	}
	if n := atomic.LoadInt32(&pageHits); n != 0 {
		t.Errorf("disallowed page was fetched %d times", n)
	}
}

func TestCitationVerifier_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewCitationVerifier(testConfig(), nil)
	got := v.Verify(ctx, []string{"Olympus Mons."}, []string{"http://127.0.0.1:1/never"})

	if got[0].Status != model.CitationError {
		t.Errorf("expected error status, got %+v", got[0])
	}
}

func TestSentenceTerms(t *testing.T) {
	got := sentenceTerms("The Moon was 4 km from the moon, and it is big.")
	want := []string{"moon", "4", "big"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("sentenceTerms = %v, want %v", got, want)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&statusError{code: 500}, true},
		{&statusError{code: 503}, true},
		{&statusError{code: 429}, true},
		{&statusError{code: 404}, false},
		{fmt.Errorf("wrapped: %w", &statusError{code: 502}), true},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("i/o timeout"), true},
		{errors.New("disallowed by robots.txt"), false},
		{context.Canceled, false},
	}
	for _, tt := range tests {
		if got := isRetryableError(tt.err); got != tt.want {
			t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
