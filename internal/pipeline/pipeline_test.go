package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/gwaln/internal/analyze"
	"github.com/ppiankov/gwaln/internal/cache"
	"github.com/ppiankov/gwaln/internal/model"
)

type fakeBias struct {
	calls  int
	events int
}

func (f *fakeBias) IsEnabled() bool { return true }

func (f *fakeBias) Verify(ctx context.Context, events []model.DiscrepancyRecord, wikiText, grokText string) []model.BiasVerification {
	f.calls++
	f.events += len(events)
	out := make([]model.BiasVerification, len(events))
	for i := range events {
		out[i] = model.BiasVerification{EventIndex: i, Verdict: model.VerdictConfirm, Rationale: "loaded"}
	}
	return out
}

type fakeCitations struct {
	sentences []string
	urls      []string
}

func (f *fakeCitations) Verify(ctx context.Context, sentences []string, urls []string) []model.CitationVerification {
	f.sentences = sentences
	f.urls = urls
	out := make([]model.CitationVerification, len(sentences))
	for i, s := range sentences {
		out[i] = model.CitationVerification{Sentence: s, Status: model.CitationUnsupported}
	}
	return out
}

const wikiMarkdown = `# Mars

Mars is the fourth planet from the Sun.
`

const grokMarkdown = `# Mars

Mars is the fourth planet from the Sun.
The regime spread propaganda about dust storms, see https://example.com/dust.
`

func writeSources(t *testing.T, dir, grok string) model.Topic {
	t.Helper()
	wikiPath := filepath.Join(dir, "wiki.md")
	grokPath := filepath.Join(dir, "grok.md")
	if err := os.WriteFile(wikiPath, []byte(wikiMarkdown), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(grokPath, []byte(grok), 0o644); err != nil {
		t.Fatal(err)
	}
	return model.Topic{ID: "mars", Title: "Mars", WikipediaURL: wikiPath, GrokipediaURL: grokPath}
}

func newTestPipeline(t *testing.T, cacheDir string) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Dir = cacheDir
	cfg.Citations.Enabled = false

	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	// Reports must be younger than the TTL to be served from cache
	now := time.Now().Add(-time.Minute)
	return p.WithAnalyzer(analyze.NewAnalyzer().WithClock(func() time.Time { return now }))
}

func TestCompare_ComputesAndCaches(t *testing.T) {
	dir := t.TempDir()
	topic := writeSources(t, dir, grokMarkdown)
	bias := &fakeBias{}
	citations := &fakeCitations{}

	p := newTestPipeline(t, filepath.Join(dir, "cache")).WithBiasVerifier(bias).WithCitationVerifier(citations)

	res, err := p.Compare(context.Background(), topic, CompareOptions{})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if res.CacheStatus != cache.StatusMissing {
		t.Errorf("expected missing cache status, got %s", res.CacheStatus)
	}
	if res.Reused {
		t.Error("first run must not reuse a report")
	}

	rep := res.Report
	if rep.Schema != model.SchemaVersion {
		t.Errorf("unexpected schema %q", rep.Schema)
	}
	if rep.Summary.Counts.BiasEvents != 1 {
		t.Errorf("expected 1 bias event, got %d", rep.Summary.Counts.BiasEvents)
	}
	if bias.calls != 1 || bias.events != 1 {
		t.Errorf("bias verifier calls=%d events=%d", bias.calls, bias.events)
	}
	if len(rep.Attachments.BiasVerifications) != 1 {
		t.Errorf("expected bias verification attached, got %+v", rep.Attachments.BiasVerifications)
	}

	if len(citations.sentences) != 1 || !strings.Contains(citations.sentences[0], "regime") {
		t.Errorf("unexpected citation sentences %v", citations.sentences)
	}
	if len(citations.urls) != 1 || citations.urls[0] != "https://example.com/dust" {
		t.Errorf("unexpected citation URLs %v", citations.urls)
	}
	if len(rep.Attachments.CitationVerifications) != 1 {
		t.Errorf("expected citation verification attached")
	}

	if _, err := os.Stat(res.CachePath); err != nil {
		t.Errorf("expected cache file at %s: %v", res.CachePath, err)
	}
	wantHash := cache.ContentHash(
		"Mars is the fourth planet from the Sun.",
		"Mars is the fourth planet from the Sun. The regime spread propaganda about dust storms, see https://example.com/dust.",
	)
	if rep.Meta.ContentHash != wantHash {
		t.Errorf("content hash %q, want %q", rep.Meta.ContentHash, wantHash)
	}
}

func TestCompare_ReusesFreshReport(t *testing.T) {
	dir := t.TempDir()
	topic := writeSources(t, dir, grokMarkdown)
	bias := &fakeBias{}

	p := newTestPipeline(t, filepath.Join(dir, "cache")).WithBiasVerifier(bias)

	first, err := p.Compare(context.Background(), topic, CompareOptions{})
	if err != nil {
		t.Fatalf("first Compare: %v", err)
	}

	second, err := p.Compare(context.Background(), topic, CompareOptions{})
	if err != nil {
		t.Fatalf("second Compare: %v", err)
	}
	if second.CacheStatus != cache.StatusFresh || !second.Reused {
		t.Errorf("expected fresh reuse, got status=%s reused=%v", second.CacheStatus, second.Reused)
	}
	if second.Report.Meta.ContentHash != first.Report.Meta.ContentHash ||
		!second.Report.Meta.GeneratedAt.Equal(first.Report.Meta.GeneratedAt) {
		t.Errorf("reused report meta %+v differs from %+v", second.Report.Meta, first.Report.Meta)
	}
	if bias.calls != 1 {
		t.Errorf("verifier should not run for a reused report, ran %d times", bias.calls)
	}

	forced, err := p.Compare(context.Background(), topic, CompareOptions{Force: true})
	if err != nil {
		t.Fatalf("forced Compare: %v", err)
	}
	if forced.Reused || forced.CacheStatus != cache.StatusFresh {
		t.Errorf("forced run: status=%s reused=%v", forced.CacheStatus, forced.Reused)
	}
	if bias.calls != 2 {
		t.Errorf("forced run should verify again, calls=%d", bias.calls)
	}
}

func TestCompare_ContentChangeIsMismatch(t *testing.T) {
	dir := t.TempDir()
	topic := writeSources(t, dir, grokMarkdown)
	p := newTestPipeline(t, filepath.Join(dir, "cache"))

	if _, err := p.Compare(context.Background(), topic, CompareOptions{}); err != nil {
		t.Fatalf("Compare: %v", err)
	}

	writeSources(t, dir, wikiMarkdown)
	res, err := p.Compare(context.Background(), topic, CompareOptions{})
	if err != nil {
		t.Fatalf("Compare after edit: %v", err)
	}
	if res.CacheStatus != cache.StatusMismatch || res.Reused {
		t.Errorf("expected mismatch recompute, got status=%s reused=%v", res.CacheStatus, res.Reused)
	}
	if !strings.Contains(res.Report.Summary.Headline, "remain aligned") {
		t.Errorf("identical sources should align, headline %q", res.Report.Summary.Headline)
	}
}

func TestCompare_CacheDisabled(t *testing.T) {
	dir := t.TempDir()
	topic := writeSources(t, dir, grokMarkdown)

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Citations.Enabled = false
	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.Store() != nil {
		t.Fatal("expected no store when caching is off")
	}

	res, err := p.Compare(context.Background(), topic, CompareOptions{})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if res.CacheStatus != "" || res.CachePath != "" {
		t.Errorf("expected no cache details, got %q %q", res.CacheStatus, res.CachePath)
	}
}

func TestCompare_Errors(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, filepath.Join(dir, "cache"))

	if _, err := p.Compare(context.Background(), model.Topic{}, CompareOptions{}); err == nil {
		t.Error("expected error for topic without id")
	}

	topic := model.Topic{ID: "ghost", WikipediaURL: filepath.Join(dir, "missing.md"), GrokipediaURL: filepath.Join(dir, "missing2.md")}
	if _, err := p.Compare(context.Background(), topic, CompareOptions{}); err == nil {
		t.Error("expected error for missing sources")
	}

	topic = model.Topic{ID: "half", WikipediaURL: filepath.Join(dir, "missing.md")}
	_, err := p.Compare(context.Background(), topic, CompareOptions{})
	if err == nil {
		t.Error("expected error for missing grokipedia source")
	}
}

func TestNewPipeline_UnknownProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "nope"
	if _, err := NewPipeline(cfg); err == nil {
		t.Error("expected error for unknown LLM provider")
	}
}
